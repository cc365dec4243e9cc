package exercises

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/extracker/extracker/internal/telemetry/metrics"
	"github.com/extracker/extracker/internal/telemetry/tracing"
	"github.com/extracker/extracker/internal/users"
	"github.com/extracker/extracker/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

//go:generate mockgen -source=$GOFILE -destination=exercises_mocks_test.go -package=exercises_test

type exercisesRepo interface {
	Add(ctx context.Context, exercise Exercise) (*Exercise, error)
	List(ctx context.Context, params ListParams) ([]Exercise, error)
}

type usersGetter interface {
	Get(ctx context.Context, id string) (*users.User, error)
}

// ExerciseView is the JSON projection of an appended exercise, carrying the
// owning user's id and username.
type ExerciseView struct {
	ID          string   `json:"_id"`
	Username    string   `json:"username"`
	Date        string   `json:"date"`
	Description string   `json:"description"`
	Duration    Duration `json:"duration"`
}

type LogEntry struct {
	Description string   `json:"description"`
	Duration    Duration `json:"duration"`
	Date        string   `json:"date"`
}

type LogsResponse struct {
	ID       string     `json:"_id"`
	Username string     `json:"username"`
	Count    int        `json:"count"`
	Log      []LogEntry `json:"log"`
}

type Handler struct {
	repo    exercisesRepo
	users   usersGetter
	metrics *metrics.Manager
}

func NewHandler(repo exercisesRepo, usersRepo usersGetter, metricsManager *metrics.Manager) *Handler {
	return &Handler{
		repo:    repo,
		users:   usersRepo,
		metrics: metricsManager,
	}
}

func (handler *Handler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.exercises.add")
	defer span.End()

	vars := mux.Vars(r)
	userID := vars["id"]

	user, err := handler.users.Get(ctx, userID)
	if errors.Is(err, users.ErrUserNotFound) {
		log.Debugf("add exercise, user %s not found", userID)
		pkg.WriteJSONError(w, "User not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Errorf("add exercise, failed to get user %s: %s", userID, err)
		pkg.WriteJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	params, err := pkg.BodyParams(r)
	if err != nil {
		log.Tracef("add exercise, read body params: %s", err)
		pkg.WriteJSONError(w, "add exercise failed", http.StatusBadRequest)
		return
	}

	exercise := Exercise{
		UserID:      userID,
		Description: params["description"],
		Duration:    ParseDuration(params["duration"]),
		Date:        ParseDate(params["date"]),
	}

	addedExercise, err := handler.repo.Add(ctx, exercise)
	if err != nil {
		log.Errorf("failed to add exercise for user %s: %s", userID, err)
		pkg.WriteJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	exerciseView := ExerciseView{
		ID:          user.ID.Hex(),
		Username:    user.Username,
		Date:        FormatDate(addedExercise.Date),
		Description: addedExercise.Description,
		Duration:    addedExercise.Duration,
	}

	exerciseViewJson, err := json.Marshal(exerciseView)
	if err != nil {
		log.Errorf("failed to marshal added exercise: %s", err)
		pkg.WriteJSONError(w, "failed to add exercise", http.StatusInternalServerError)
		return
	}

	handler.metrics.CounterExercisesAdded.Inc()
	log.Debugf("new exercise added for user %s: %s", userID, addedExercise.ID.Hex())
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, exerciseViewJson, http.StatusOK)
}

func (handler *Handler) HandleLogs(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.exercises.logs")
	defer span.End()

	vars := mux.Vars(r)
	userID := vars["id"]

	user, err := handler.users.Get(ctx, userID)
	if errors.Is(err, users.ErrUserNotFound) {
		log.Debugf("get logs, user %s not found", userID)
		pkg.WriteJSONError(w, "User not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Errorf("get logs, failed to get user %s: %s", userID, err)
		pkg.WriteJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	listParams := ListParams{
		UserID: userID,
	}
	query := r.URL.Query()
	if from, ok := ParseFilterDate(query.Get("from")); ok {
		listParams.From = &from
	}
	if to, ok := ParseFilterDate(query.Get("to")); ok {
		listParams.To = &to
	}
	if limit, err := strconv.ParseInt(query.Get("limit"), 10, 64); err == nil && limit > 0 {
		listParams.Limit = limit
	}

	foundExercises, err := handler.repo.List(ctx, listParams)
	if err != nil {
		log.Errorf("failed to list exercises for user %s: %s", userID, err)
		pkg.WriteJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	logEntries := make([]LogEntry, 0, len(foundExercises))
	for _, exercise := range foundExercises {
		logEntries = append(logEntries, LogEntry{
			Description: exercise.Description,
			Duration:    exercise.Duration,
			Date:        FormatDate(exercise.Date),
		})
	}

	logsResponse := LogsResponse{
		ID:       user.ID.Hex(),
		Username: user.Username,
		Count:    len(logEntries),
		Log:      logEntries,
	}

	logsResponseJson, err := json.Marshal(logsResponse)
	if err != nil {
		log.Errorf("failed to marshal logs response: %s", err)
		pkg.WriteJSONError(w, "failed to get logs", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, logsResponseJson, http.StatusOK)
}
