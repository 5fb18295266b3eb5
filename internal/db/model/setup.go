package model

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/tcoinlabs-io/tcoin-accounting-engine/internal/config"
)

const setupTimeout = 30 * time.Second

var collections = map[string][]mongo.IndexModel{
	GlobalParamsCollection: {
		{
			Keys:    bson.D{{Key: "type", Value: 1}, {Key: "version", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	},
	DividendAccountCollection:     nil,
	PendingRefundCollection:       nil,
	ActivityFingerprintCollection: nil,
	HeldDistributionCollection:    nil,
}

// Setup creates the collections and indexes the engine relies on.
func Setup(ctx context.Context, cfg *config.DbConfig) error {
	credential := options.Credential{
		Username: cfg.Username,
		Password: cfg.Password,
	}
	clientOps := options.Client().ApplyURI(cfg.Address).SetAuth(credential)
	client, err := mongo.Connect(ctx, clientOps)
	if err != nil {
		return fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	defer func() {
		_ = client.Disconnect(ctx)
	}()

	ctx, cancel := context.WithTimeout(ctx, setupTimeout)
	defer cancel()

	database := client.Database(cfg.DbName)
	for name, indexes := range collections {
		if err := createCollection(ctx, database, name); err != nil {
			return err
		}
		if len(indexes) == 0 {
			continue
		}
		if _, err := database.Collection(name).Indexes().CreateMany(ctx, indexes); err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", name, err)
		}
	}
	return nil
}

func createCollection(ctx context.Context, database *mongo.Database, name string) error {
	err := database.CreateCollection(ctx, name)
	if err == nil {
		return nil
	}
	// an existing collection is fine
	if cmdErr, ok := err.(mongo.CommandError); ok && cmdErr.Name == "NamespaceExists" {
		return nil
	}
	return fmt.Errorf("failed to create collection %s: %w", name, err)
}
