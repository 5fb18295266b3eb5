package pricing

import (
	sdkmath "cosmossdk.io/math"

	"github.com/tcoinlabs-io/tcoin-accounting-engine/internal/schedule"
	"github.com/tcoinlabs-io/tcoin-accounting-engine/internal/types"
)

// Guard converts an externally observed per-unit price and the configured
// floor values into a fee adjustment. Prices are fixed-point with 18 decimal
// places. The guard is pure: all inputs are values and the output is a
// replacement rate.
type Guard struct {
	// DynamicFloorFrac controls how aggressively a price below the floor
	// widens the fee, on the same integer-percent scale as tax rates.
	DynamicFloorFrac uint32

	// BuyFeeFloorPriceE18 is the per-unit price below which buys are taxed
	// harder to discourage feeding cheap buys into further suppression.
	BuyFeeFloorPriceE18 sdkmath.Int

	// SellCapFloorPriceE18 is the symmetric floor for sells. Zero disables
	// the sell-side adjustment, which is the default configuration.
	SellCapFloorPriceE18 sdkmath.Int
}

// AdjustFee returns the effective tax rate for a transfer given the raw
// bracket rate and the observed per-unit price. The raw rate is widened by
// (floor - observed) * DynamicFloorFrac / floor when the observed price sits
// below the relevant floor, clamped to [0, schedule.MaxTaxRate].
func (g Guard) AdjustFee(direction types.TransferDirection, rawTaxRate uint32, observedPriceE18 sdkmath.Int) uint32 {
	var floor sdkmath.Int
	switch direction {
	case types.DirectionBuy:
		floor = g.BuyFeeFloorPriceE18
	case types.DirectionSell:
		floor = g.SellCapFloorPriceE18
	default:
		return clampRate(rawTaxRate)
	}

	if floor.IsNil() || !floor.IsPositive() {
		return clampRate(rawTaxRate)
	}
	if observedPriceE18.IsNil() || observedPriceE18.GTE(floor) {
		return clampRate(rawTaxRate)
	}

	// bump = (floor - observed) * frac / floor; the ratio never exceeds one,
	// so the bump is bounded by DynamicFloorFrac
	bump := floor.Sub(observedPriceE18).
		MulRaw(int64(g.DynamicFloorFrac)).
		Quo(floor)

	adjusted := uint64(rawTaxRate) + bump.Uint64()
	if adjusted > schedule.MaxTaxRate {
		return schedule.MaxTaxRate
	}
	return uint32(adjusted)
}

func clampRate(rate uint32) uint32 {
	if rate > schedule.MaxTaxRate {
		return schedule.MaxTaxRate
	}
	return rate
}
