package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/extracker/extracker/internal/telemetry/tracing"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.opentelemetry.io/otel/attribute"
)

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrUsernameTaken = errors.New("username already exists")
)

type Repo struct {
	users *mongo.Collection
}

func NewRepo(db *mongo.Database) *Repo {
	return &Repo{
		users: db.Collection("users"),
	}
}

// Create persists a new user, unless the username is already present.
// The username check is an application level lookup, the collection has no
// uniqueness constraint, so two concurrent creates can both slip through.
func (r *Repo) Create(ctx context.Context, username string) (_ *User, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.users.create")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("username", username))

	err = r.users.FindOne(ctx, bson.M{"username": username}).Err()
	if err == nil {
		return nil, ErrUsernameTaken
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("find user by username: %w", err)
	}

	insertRes, err := r.users.InsertOne(ctx, bson.M{"username": username})
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}

	insertedID, ok := insertRes.InsertedID.(primitive.ObjectID)
	if !ok {
		return nil, errors.New("unexpected inserted user id type")
	}

	return &User{
		ID:       insertedID,
		Username: username,
	}, nil
}

func (r *Repo) Get(ctx context.Context, id string) (_ *User, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.users.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("id", id))

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("invalid user id [%s]: %w", id, err)
	}

	var user User
	err = r.users.FindOne(ctx, bson.M{"_id": objectID}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find user by id: %w", err)
	}

	return &user, nil
}

// List returns all users, full documents, in the store natural order.
func (r *Repo) List(ctx context.Context) (_ []User, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.users.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	cursor, err := r.users.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("find users: %w", err)
	}

	var allUsers []User
	if err := cursor.All(ctx, &allUsers); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}

	if allUsers == nil {
		allUsers = make([]User, 0)
	}
	return allUsers, nil
}
