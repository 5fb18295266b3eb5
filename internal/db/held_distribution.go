package db

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/tcoinlabs-io/tcoin-accounting-engine/internal/db/model"
)

// SaveHeldDistribution parks a distribution that could not be applied
// because no eligible supply existed at the time.
func (db *Database) SaveHeldDistribution(
	ctx context.Context, held *model.HeldDistributionDocument,
) error {
	_, err := db.collection(model.HeldDistributionCollection).InsertOne(ctx, held)
	if mongo.IsDuplicateKeyError(err) {
		return &DuplicateKeyError{
			Key:     held.Id,
			Message: err.Error(),
		}
	}
	return err
}

func (db *Database) GetHeldDistributions(ctx context.Context) ([]model.HeldDistributionDocument, error) {
	cursor, err := db.collection(model.HeldDistributionCollection).Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to list held distributions: %w", err)
	}
	defer cursor.Close(ctx)

	var held []model.HeldDistributionDocument
	if err := cursor.All(ctx, &held); err != nil {
		return nil, fmt.Errorf("failed to decode held distributions: %w", err)
	}
	return held, nil
}

func (db *Database) DeleteHeldDistribution(ctx context.Context, id string) error {
	filter := bson.M{"_id": id}

	_, err := db.collection(model.HeldDistributionCollection).DeleteOne(ctx, filter)
	return err
}
