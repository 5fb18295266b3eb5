package config

import (
	"errors"
	"time"
)

type PollerConfig struct {
	// HeldDistributionRetryInterval paces retries of distributions parked
	// because no holder was above the dividend threshold.
	HeldDistributionRetryInterval time.Duration `mapstructure:"held-distribution-retry-interval"`
}

func (cfg *PollerConfig) Validate() error {
	if cfg.HeldDistributionRetryInterval <= 0 {
		return errors.New("held-distribution-retry-interval must be positive")
	}
	return nil
}
