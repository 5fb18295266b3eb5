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

func (db *Database) UpsertDividendAccount(
	ctx context.Context, account *model.DividendAccountDocument,
) error {
	filter := bson.M{"_id": account.Account}
	update := bson.M{"$set": bson.M{
		"balance":             account.Balance,
		"withdrawn_dividends": account.WithdrawnDividends,
		"corrections":         account.Corrections,
		"last_claim_time":     account.LastClaimTime,
	}}

	_, err := db.collection(model.DividendAccountCollection).
		UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	return err
}

func (db *Database) GetDividendAccount(
	ctx context.Context, account string,
) (*model.DividendAccountDocument, error) {
	filter := bson.M{"_id": account}

	var doc model.DividendAccountDocument
	err := db.collection(model.DividendAccountCollection).FindOne(ctx, filter).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, &NotFoundError{
				Key:     account,
				Message: "dividend account not found",
			}
		}
		return nil, fmt.Errorf("failed to get dividend account: %w", err)
	}
	return &doc, nil
}

func (db *Database) GetAllDividendAccounts(ctx context.Context) ([]model.DividendAccountDocument, error) {
	cursor, err := db.collection(model.DividendAccountCollection).Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to list dividend accounts: %w", err)
	}
	defer cursor.Close(ctx)

	var accounts []model.DividendAccountDocument
	if err := cursor.All(ctx, &accounts); err != nil {
		return nil, fmt.Errorf("failed to decode dividend accounts: %w", err)
	}
	return accounts, nil
}
