package fees

import (
	"fmt"

	sdkmath "cosmossdk.io/math"

	"github.com/tcoinlabs-io/tcoin-accounting-engine/internal/pricing"
	"github.com/tcoinlabs-io/tcoin-accounting-engine/internal/types"
)

// Config carries the scalar knobs of the fee engine. It is treated as an
// immutable value: administrative updates build a fresh Config and swap the
// whole reference into the engine.
type Config struct {
	DynamicFloorFrac     uint32
	BuyFeeFloorPriceE18  sdkmath.Int
	SellCapFloorPriceE18 sdkmath.Int
	AntiFlashloanMode    types.AntiFlashloanMode
	RefundPeriodSeconds  uint64
}

func (c *Config) Validate() error {
	if c.BuyFeeFloorPriceE18.IsNil() || c.BuyFeeFloorPriceE18.IsNegative() {
		return fmt.Errorf("buy fee floor price must be non-negative")
	}
	if c.SellCapFloorPriceE18.IsNil() || c.SellCapFloorPriceE18.IsNegative() {
		return fmt.Errorf("sell cap floor price must be non-negative")
	}
	if _, err := types.ParseAntiFlashloanMode(c.AntiFlashloanMode.String()); err != nil {
		return err
	}
	return nil
}

// Guard projects the floor-pricing knobs into the pure pricing guard.
func (c *Config) Guard() pricing.Guard {
	return pricing.Guard{
		DynamicFloorFrac:     c.DynamicFloorFrac,
		BuyFeeFloorPriceE18:  c.BuyFeeFloorPriceE18,
		SellCapFloorPriceE18: c.SellCapFloorPriceE18,
	}
}
