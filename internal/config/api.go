package config

import "fmt"

type ApiConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

func (cfg *ApiConfig) Validate() error {
	if cfg.Host == "" {
		return fmt.Errorf("missing api host")
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return fmt.Errorf("api port %d is out of range", cfg.Port)
	}
	return nil
}

func (cfg *ApiConfig) Address() string {
	return fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
}
