package config

import (
	"fmt"
	"time"

	sdkmath "cosmossdk.io/math"

	"github.com/tcoinlabs-io/tcoin-accounting-engine/internal/fees"
	"github.com/tcoinlabs-io/tcoin-accounting-engine/internal/schedule"
	"github.com/tcoinlabs-io/tcoin-accounting-engine/internal/types"
)

// BracketConfig is one time-bucketed fee rule of the launch schedule.
type BracketConfig struct {
	FromSeconds uint64 `mapstructure:"from-seconds"`
	ToSeconds   uint64 `mapstructure:"to-seconds"`
	TaxRate     uint32 `mapstructure:"tax-rate"`
	PreScaling  uint32 `mapstructure:"pre-scaling"`
	PostScaling uint32 `mapstructure:"post-scaling"`
}

type EngineConfig struct {
	// LaunchTime is the unix timestamp the elapsed-time brackets are keyed
	// against.
	LaunchTime uint64 `mapstructure:"launch-time"`

	// CollectorAccount receives withheld fees on the base ledger.
	CollectorAccount string `mapstructure:"collector-account"`

	// MarketMakerAccounts classify a transfer as a buy (market maker is the
	// sender) or sell (market maker is the recipient).
	MarketMakerAccounts []string `mapstructure:"market-maker-accounts"`

	// FeeExemptAccounts transfer without fees in either direction.
	FeeExemptAccounts []string `mapstructure:"fee-exempt-accounts"`

	DynamicFloorFrac     uint32        `mapstructure:"dynamic-floor-frac"`
	BuyFeeFloorPriceE18  string        `mapstructure:"buy-fee-floor-price-e18"`
	SellCapFloorPriceE18 string        `mapstructure:"sell-cap-floor-price-e18"`
	AntiFlashloanMode    string        `mapstructure:"anti-flashloan-mode"`
	RefundPeriod         time.Duration `mapstructure:"refund-period"`

	Brackets []BracketConfig `mapstructure:"brackets"`
}

func (cfg *EngineConfig) Validate() error {
	if cfg.LaunchTime == 0 {
		return fmt.Errorf("engine launch-time is required")
	}
	if cfg.CollectorAccount == "" {
		return fmt.Errorf("engine collector-account is required")
	}
	if _, ok := sdkmath.NewIntFromString(cfg.BuyFeeFloorPriceE18); !ok {
		return fmt.Errorf("engine buy-fee-floor-price-e18 %q is not an integer", cfg.BuyFeeFloorPriceE18)
	}
	if _, ok := sdkmath.NewIntFromString(cfg.SellCapFloorPriceE18); !ok {
		return fmt.Errorf("engine sell-cap-floor-price-e18 %q is not an integer", cfg.SellCapFloorPriceE18)
	}
	if _, err := types.ParseAntiFlashloanMode(cfg.AntiFlashloanMode); err != nil {
		return err
	}
	if cfg.RefundPeriod <= 0 {
		return fmt.Errorf("engine refund-period must be positive")
	}
	if _, err := cfg.ScheduleTable(); err != nil {
		return err
	}
	return nil
}

// FeeConfig builds the immutable fee engine configuration.
func (cfg *EngineConfig) FeeConfig() *fees.Config {
	buyFloor, _ := sdkmath.NewIntFromString(cfg.BuyFeeFloorPriceE18)
	sellFloor, _ := sdkmath.NewIntFromString(cfg.SellCapFloorPriceE18)
	mode, _ := types.ParseAntiFlashloanMode(cfg.AntiFlashloanMode)
	return &fees.Config{
		DynamicFloorFrac:     cfg.DynamicFloorFrac,
		BuyFeeFloorPriceE18:  buyFloor,
		SellCapFloorPriceE18: sellFloor,
		AntiFlashloanMode:    mode,
		RefundPeriodSeconds:  uint64(cfg.RefundPeriod / time.Second),
	}
}

// ScheduleTable builds the launch schedule from the configured brackets.
func (cfg *EngineConfig) ScheduleTable() (*schedule.Table, error) {
	brackets := make([]schedule.TaxBracket, 0, len(cfg.Brackets))
	for _, b := range cfg.Brackets {
		brackets = append(brackets, schedule.TaxBracket{
			FromSeconds: b.FromSeconds,
			ToSeconds:   b.ToSeconds,
			TaxRate:     b.TaxRate,
			PreScaling:  b.PreScaling,
			PostScaling: b.PostScaling,
		})
	}
	return schedule.NewTable(brackets)
}
