package db

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.opentelemetry.io/contrib/instrumentation/go.mongodb.org/mongo-driver/mongo/otelmongo"
)

type NewMongoClientParams struct {
	URI            string
	TracingEnabled bool
}

func NewMongoClient(ctx context.Context, params NewMongoClientParams) (*mongo.Client, error) {
	clientOptions := options.Client().ApplyURI(params.URI)

	if params.TracingEnabled {
		clientOptions.SetMonitor(otelmongo.NewMonitor())
	}

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("connect to mongo: %w", err)
	}

	return client, nil
}
