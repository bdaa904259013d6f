// Package dbmongo holds the delivery audit log.
package dbmongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"nirala/internal/config"
)

const connectTimeout = 10 * time.Second

type MongoClient struct {
	Client   *mongo.Client
	Database *mongo.Database
}

// NewMongoConnection dials the audit database and fails fast when the
// primary is unreachable.
func NewMongoConnection(c *config.Config) (*MongoClient, error) {
	opts := options.Client().
		ApplyURI(c.GetMongoURI()).
		SetAppName("nirala-notifications").
		SetMaxPoolSize(20).
		SetServerSelectionTimeout(5 * time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect MongoDB: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return &MongoClient{
		Client:   client,
		Database: client.Database(c.MongoDB.Database),
	}, nil
}

func (mc *MongoClient) Collection(name string) *mongo.Collection {
	return mc.Database.Collection(name)
}

func (mc *MongoClient) Close(ctx context.Context) error {
	return mc.Client.Disconnect(ctx)
}
