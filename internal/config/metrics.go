package config

import "fmt"

type MetricsConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

func (cfg *MetricsConfig) Validate() error {
	if cfg.Host == "" {
		return fmt.Errorf("missing metrics host")
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return fmt.Errorf("metrics port %d is out of range", cfg.Port)
	}
	return nil
}

func (cfg *MetricsConfig) GetMetricsPort() int {
	return cfg.Port
}
