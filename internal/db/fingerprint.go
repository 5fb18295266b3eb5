package db

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/tcoinlabs-io/tcoin-accounting-engine/internal/db/model"
)

func (db *Database) UpsertActivityFingerprint(
	ctx context.Context, account string, round uint64,
) error {
	filter := bson.M{"_id": account}
	update := bson.M{"$set": bson.M{"last_active_round": round}}

	_, err := db.collection(model.ActivityFingerprintCollection).
		UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	return err
}

func (db *Database) GetAllActivityFingerprints(ctx context.Context) ([]model.ActivityFingerprintDocument, error) {
	cursor, err := db.collection(model.ActivityFingerprintCollection).Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to list activity fingerprints: %w", err)
	}
	defer cursor.Close(ctx)

	var fingerprints []model.ActivityFingerprintDocument
	if err := cursor.All(ctx, &fingerprints); err != nil {
		return nil, fmt.Errorf("failed to decode activity fingerprints: %w", err)
	}
	return fingerprints, nil
}
