package config

import (
	"fmt"

	sdkmath "cosmossdk.io/math"
)

type DividendsConfig struct {
	// MinimumBalanceForDividends is the base-unit balance an account must
	// hold to participate in the dividend stream.
	MinimumBalanceForDividends string `mapstructure:"minimum-balance-for-dividends"`

	// ExcludedAccounts never accrue dividends (collector, market maker,
	// burn address and similar plumbing accounts).
	ExcludedAccounts []string `mapstructure:"excluded-accounts"`
}

func (cfg *DividendsConfig) Validate() error {
	minimum, ok := sdkmath.NewIntFromString(cfg.MinimumBalanceForDividends)
	if !ok {
		return fmt.Errorf("dividends minimum-balance-for-dividends %q is not an integer", cfg.MinimumBalanceForDividends)
	}
	if minimum.IsNegative() {
		return fmt.Errorf("dividends minimum-balance-for-dividends must be non-negative")
	}
	return nil
}

func (cfg *DividendsConfig) MinimumBalance() sdkmath.Int {
	minimum, _ := sdkmath.NewIntFromString(cfg.MinimumBalanceForDividends)
	return minimum
}
