package users

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/extracker/extracker/internal/telemetry/metrics"
	"github.com/extracker/extracker/internal/telemetry/tracing"
	"github.com/extracker/extracker/pkg"

	log "github.com/sirupsen/logrus"
)

//go:generate mockgen -source=$GOFILE -destination=users_mocks_test.go -package=users_test

type usersRepo interface {
	Create(ctx context.Context, username string) (*User, error)
	Get(ctx context.Context, id string) (*User, error)
	List(ctx context.Context) ([]User, error)
}

type Handler struct {
	repo    usersRepo
	metrics *metrics.Manager
}

func NewHandler(repo usersRepo, metricsManager *metrics.Manager) *Handler {
	return &Handler{
		repo:    repo,
		metrics: metricsManager,
	}
}

func (handler *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.users.create")
	defer span.End()

	params, err := pkg.BodyParams(r)
	if err != nil {
		log.Tracef("create user, read body params: %s", err)
		pkg.WriteJSONError(w, "create user failed", http.StatusBadRequest)
		return
	}

	// the username is stored as received, empty or not
	username := params["username"]

	createdUser, err := handler.repo.Create(ctx, username)
	if errors.Is(err, ErrUsernameTaken) {
		log.Debugf("create user [%s]: username taken", username)
		pkg.WriteJSONError(w, "Username already exists", http.StatusBadRequest)
		return
	}
	if err != nil {
		log.Errorf("failed to create user [%s]: %s", username, err)
		pkg.WriteJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	createdUserJson, err := json.Marshal(createdUser)
	if err != nil {
		log.Errorf("failed to marshal created user: %s", err)
		pkg.WriteJSONError(w, "failed to create user", http.StatusInternalServerError)
		return
	}

	handler.metrics.CounterUsersCreated.Inc()
	log.Debugf("new user created: %s", createdUser.ID.Hex())
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, createdUserJson, http.StatusOK)
}

func (handler *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.users.list")
	defer span.End()

	allUsers, err := handler.repo.List(ctx)
	if err != nil {
		log.Errorf("failed to list users: %s", err)
		pkg.WriteJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	usersJson, err := json.Marshal(allUsers)
	if err != nil {
		log.Errorf("failed to marshal users: %s", err)
		pkg.WriteJSONError(w, "failed to list users", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, usersJson, http.StatusOK)
}
