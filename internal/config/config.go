package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Db        DbConfig        `mapstructure:"db"`
	Queue     QueueConfig     `mapstructure:"queue"`
	Engine    EngineConfig    `mapstructure:"engine"`
	Dividends DividendsConfig `mapstructure:"dividends"`
	Poller    PollerConfig    `mapstructure:"poller"`
	Api       ApiConfig       `mapstructure:"api"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
}

func (cfg *Config) Validate() error {
	if err := cfg.Db.Validate(); err != nil {
		return err
	}
	if err := cfg.Queue.Validate(); err != nil {
		return err
	}
	if err := cfg.Engine.Validate(); err != nil {
		return err
	}
	if err := cfg.Dividends.Validate(); err != nil {
		return err
	}
	if err := cfg.Poller.Validate(); err != nil {
		return err
	}
	if err := cfg.Api.Validate(); err != nil {
		return err
	}
	if err := cfg.Metrics.Validate(); err != nil {
		return err
	}
	return nil
}

// New loads the yaml config file at cfgPath. Environment variables of the
// form TCOIN_SECTION_KEY override file values.
func New(cfgPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(cfgPath)
	v.SetEnvPrefix("tcoin")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", cfgPath, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
