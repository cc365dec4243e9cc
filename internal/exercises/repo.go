package exercises

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/extracker/extracker/internal/telemetry/tracing"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.opentelemetry.io/otel/attribute"
)

type ListParams struct {
	UserID string
	From   *time.Time
	To     *time.Time
	Limit  int64
}

type Repo struct {
	exercises *mongo.Collection
}

func NewRepo(db *mongo.Database) *Repo {
	return &Repo{
		exercises: db.Collection("exercises"),
	}
}

func (r *Repo) Add(ctx context.Context, exercise Exercise) (_ *Exercise, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.exercises.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("user_id", exercise.UserID))

	insertRes, err := r.exercises.InsertOne(ctx, exercise)
	if err != nil {
		return nil, fmt.Errorf("insert exercise: %w", err)
	}

	insertedID, ok := insertRes.InsertedID.(primitive.ObjectID)
	if !ok {
		return nil, errors.New("unexpected inserted exercise id type")
	}

	span.SetAttributes(attribute.String("exercise.id", insertedID.Hex()))

	exercise.ID = insertedID
	return &exercise, nil
}

// List returns the exercises of a user, optionally restricted to a date
// range (inclusive on both ends) and capped by a limit. No explicit sort is
// applied, the cap keeps whatever the store returns first.
func (r *Repo) List(ctx context.Context, params ListParams) (_ []Exercise, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.exercises.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("user_id", params.UserID))
	span.SetAttributes(attribute.Int64("limit", params.Limit))
	if params.From != nil {
		span.SetAttributes(attribute.String("from", params.From.String()))
	}
	if params.To != nil {
		span.SetAttributes(attribute.String("to", params.To.String()))
	}

	filter := bson.M{"userId": params.UserID}
	dateFilter := bson.M{}
	if params.From != nil {
		dateFilter["$gte"] = *params.From
	}
	if params.To != nil {
		dateFilter["$lte"] = *params.To
	}
	if len(dateFilter) > 0 {
		filter["date"] = dateFilter
	}

	findOptions := options.Find()
	if params.Limit > 0 {
		findOptions.SetLimit(params.Limit)
	}

	cursor, err := r.exercises.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, fmt.Errorf("find exercises: %w", err)
	}

	var found []Exercise
	if err := cursor.All(ctx, &found); err != nil {
		return nil, fmt.Errorf("decode exercises: %w", err)
	}

	if found == nil {
		found = make([]Exercise, 0)
	}
	return found, nil
}
