package db

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/tcoinlabs-io/tcoin-accounting-engine/internal/db/model"
)

func (db *Database) UpsertPendingRefund(
	ctx context.Context, refund *model.PendingRefundDocument,
) error {
	filter := bson.M{"_id": refund.Account}
	update := bson.M{"$set": bson.M{
		"amount_owed": refund.AmountOwed,
		"unlock_time": refund.UnlockTime,
	}}

	_, err := db.collection(model.PendingRefundCollection).
		UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	return err
}

func (db *Database) GetPendingRefund(
	ctx context.Context, account string,
) (*model.PendingRefundDocument, error) {
	filter := bson.M{"_id": account}

	var doc model.PendingRefundDocument
	err := db.collection(model.PendingRefundCollection).FindOne(ctx, filter).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, &NotFoundError{
				Key:     account,
				Message: "pending refund not found",
			}
		}
		return nil, fmt.Errorf("failed to get pending refund: %w", err)
	}
	return &doc, nil
}

func (db *Database) DeletePendingRefund(ctx context.Context, account string) error {
	filter := bson.M{"_id": account}

	_, err := db.collection(model.PendingRefundCollection).DeleteOne(ctx, filter)
	return err
}

func (db *Database) GetAllPendingRefunds(ctx context.Context) ([]model.PendingRefundDocument, error) {
	cursor, err := db.collection(model.PendingRefundCollection).Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to list pending refunds: %w", err)
	}
	defer cursor.Close(ctx)

	var refunds []model.PendingRefundDocument
	if err := cursor.All(ctx, &refunds); err != nil {
		return nil, fmt.Errorf("failed to decode pending refunds: %w", err)
	}
	return refunds, nil
}
