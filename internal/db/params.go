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

const (
	scheduleParamsType  = "SCHEDULE"
	feeEngineParamsType = "FEE_ENGINE"
	dividendStateType   = "DIVIDEND_STATE"

	// feeEngineParamsVersion is hardcoded to 0: the fee engine params are
	// upserted in place. We keep the versioning for future compatibility
	// and to maintain the same pattern as the schedule table.
	feeEngineParamsVersion = 0
	dividendStateVersion   = 0
)

// SaveScheduleTable stores one immutable schedule version. Re-saving an
// existing version is a duplicate-key error, never an overwrite.
func (db *Database) SaveScheduleTable(
	ctx context.Context, version uint64, brackets []model.TaxBracketRecord,
) error {
	collection := db.collection(model.GlobalParamsCollection)

	doc := &model.ScheduleDocument{
		BaseParamsDocument: model.BaseParamsDocument{
			Type:    scheduleParamsType,
			Version: version,
		},
		Brackets: brackets,
	}

	_, err := collection.InsertOne(ctx, doc)
	// nil check is inside IsDuplicateKeyError
	if mongo.IsDuplicateKeyError(err) {
		return &DuplicateKeyError{
			Key:     fmt.Sprintf("%s/%d", scheduleParamsType, version),
			Message: err.Error(),
		}
	}
	return err
}

// GetScheduleTable returns the schedule document stored at version.
func (db *Database) GetScheduleTable(ctx context.Context, version uint64) (*model.ScheduleDocument, error) {
	collection := db.collection(model.GlobalParamsCollection)

	filter := bson.M{"type": scheduleParamsType, "version": version}

	var doc model.ScheduleDocument
	err := collection.FindOne(ctx, filter).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, &NotFoundError{
				Key:     fmt.Sprintf("%s/%d", scheduleParamsType, version),
				Message: "no schedule table stored at this version",
			}
		}
		return nil, fmt.Errorf("failed to get schedule table version %d: %w", version, err)
	}
	return &doc, nil
}

// GetLatestScheduleTable returns the schedule document with the highest
// version.
func (db *Database) GetLatestScheduleTable(ctx context.Context) (*model.ScheduleDocument, error) {
	collection := db.collection(model.GlobalParamsCollection)

	filter := bson.M{"type": scheduleParamsType}
	opts := options.FindOne().SetSort(bson.M{"version": -1})

	var doc model.ScheduleDocument
	err := collection.FindOne(ctx, filter, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, &NotFoundError{
				Key:     scheduleParamsType,
				Message: "no schedule table stored",
			}
		}
		return nil, fmt.Errorf("failed to get latest schedule table: %w", err)
	}
	return &doc, nil
}

func (db *Database) SaveFeeEngineParams(
	ctx context.Context, params *model.FeeEngineParamsDocument,
) error {
	collection := db.collection(model.GlobalParamsCollection)

	params.Type = feeEngineParamsType
	params.Version = feeEngineParamsVersion

	filter := bson.M{
		"type":    feeEngineParamsType,
		"version": feeEngineParamsVersion,
	}
	update := bson.M{"$set": params}

	_, err := collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	return err
}

func (db *Database) GetFeeEngineParams(ctx context.Context) (*model.FeeEngineParamsDocument, error) {
	collection := db.collection(model.GlobalParamsCollection)

	filter := bson.M{
		"type":    feeEngineParamsType,
		"version": feeEngineParamsVersion,
	}

	var params model.FeeEngineParamsDocument
	err := collection.FindOne(ctx, filter).Decode(&params)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, &NotFoundError{
				Key:     feeEngineParamsType,
				Message: "no fee engine params stored",
			}
		}
		return nil, fmt.Errorf("failed to get fee engine params: %w", err)
	}
	return &params, nil
}

func (db *Database) SaveDividendGlobalState(
	ctx context.Context, state *model.DividendGlobalStateDocument,
) error {
	collection := db.collection(model.GlobalParamsCollection)

	state.Type = dividendStateType
	state.Version = dividendStateVersion

	filter := bson.M{
		"type":    dividendStateType,
		"version": dividendStateVersion,
	}
	update := bson.M{"$set": state}

	_, err := collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	return err
}

func (db *Database) GetDividendGlobalState(ctx context.Context) (*model.DividendGlobalStateDocument, error) {
	collection := db.collection(model.GlobalParamsCollection)

	filter := bson.M{
		"type":    dividendStateType,
		"version": dividendStateVersion,
	}

	var state model.DividendGlobalStateDocument
	err := collection.FindOne(ctx, filter).Decode(&state)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, &NotFoundError{
				Key:     dividendStateType,
				Message: "no dividend global state stored",
			}
		}
		return nil, fmt.Errorf("failed to get dividend global state: %w", err)
	}
	return &state, nil
}
