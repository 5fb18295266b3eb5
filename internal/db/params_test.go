//go:build integration

package db_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tcoinlabs-io/tcoin-accounting-engine/internal/db"
	"github.com/tcoinlabs-io/tcoin-accounting-engine/internal/db/model"
)

func TestScheduleTable(t *testing.T) {
	ctx := t.Context()
	t.Cleanup(func() {
		resetDatabase(t)
	})

	brackets := []model.TaxBracketRecord{
		{FromSeconds: 0, ToSeconds: 2592000, TaxRate: 30, PreScaling: 100, PostScaling: 100},
	}

	t.Run("latest wins", func(t *testing.T) {
		require.NoError(t, testDB.SaveScheduleTable(ctx, 1, brackets))

		updated := []model.TaxBracketRecord{
			{FromSeconds: 0, ToSeconds: 2592000, TaxRate: 10, PreScaling: 100, PostScaling: 100},
		}
		require.NoError(t, testDB.SaveScheduleTable(ctx, 2, updated))

		doc, err := testDB.GetLatestScheduleTable(ctx)
		require.NoError(t, err)
		assert.Equal(t, uint64(2), doc.Version)
		assert.Equal(t, updated, doc.Brackets)
	})
	t.Run("superseded version stays addressable", func(t *testing.T) {
		doc, err := testDB.GetScheduleTable(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, uint64(1), doc.Version)
		assert.Equal(t, brackets, doc.Brackets)
	})
	t.Run("unknown version not found", func(t *testing.T) {
		doc, err := testDB.GetScheduleTable(ctx, 42)
		assert.True(t, db.IsNotFoundError(err))
		assert.Nil(t, doc)
	})
	t.Run("insert duplicate version", func(t *testing.T) {
		err := testDB.SaveScheduleTable(ctx, 1, brackets)
		assert.True(t, db.IsDuplicateKeyError(err))
	})
}

func TestFeeEngineParams(t *testing.T) {
	ctx := t.Context()
	t.Cleanup(func() {
		resetDatabase(t)
	})

	t.Run("not found", func(t *testing.T) {
		params, err := testDB.GetFeeEngineParams(ctx)
		assert.True(t, db.IsNotFoundError(err))
		assert.Nil(t, params)
	})
	t.Run("check upsert", func(t *testing.T) {
		updates := []*model.FeeEngineParamsDocument{
			{
				DynamicFloorFrac:     100,
				BuyFeeFloorPriceE18:  "1000000000000000000",
				SellCapFloorPriceE18: "0",
				AntiFlashloanMode:    "PENALIZE",
				RefundPeriodSeconds:  900,
			},
			{
				DynamicFloorFrac:     50,
				BuyFeeFloorPriceE18:  "2000000000000000000",
				SellCapFloorPriceE18: "0",
				AntiFlashloanMode:    "REJECT",
				RefundPeriodSeconds:  1800,
			},
		}

		// on first iteration we check insertion
		// on second we check that update has been applied
		for _, update := range updates {
			err := testDB.SaveFeeEngineParams(ctx, update)
			require.NoError(t, err)

			params, err := testDB.GetFeeEngineParams(ctx)
			require.NoError(t, err)
			assert.Equal(t, update, params)
		}
	})
}

func TestDividendGlobalState(t *testing.T) {
	ctx := t.Context()
	t.Cleanup(func() {
		resetDatabase(t)
	})

	t.Run("not found", func(t *testing.T) {
		state, err := testDB.GetDividendGlobalState(ctx)
		assert.True(t, db.IsNotFoundError(err))
		assert.Nil(t, state)
	})
	t.Run("check upsert", func(t *testing.T) {
		updates := []*model.DividendGlobalStateDocument{
			{
				MagnifiedPerShare: "340282366920938463463374607431768211456",
				TotalDistributed:  "1000",
				MinimumBalance:    "10000000000000",
				ExcludedAccounts:  []string{"0xcollector"},
			},
			{
				MagnifiedPerShare: "680564733841876926926749214863536422912",
				TotalDistributed:  "2000",
				MinimumBalance:    "10000000000000",
				ExcludedAccounts:  []string{"0xcollector", "0xburn"},
			},
		}

		for _, update := range updates {
			err := testDB.SaveDividendGlobalState(ctx, update)
			require.NoError(t, err)

			state, err := testDB.GetDividendGlobalState(ctx)
			require.NoError(t, err)
			assert.Equal(t, update, state)
		}
	})
}
