package config

import "fmt"

type QueueConfig struct {
	Url               string `mapstructure:"url"`
	TransferQueueName string `mapstructure:"transfer-queue-name"`
	PrefetchCount     int    `mapstructure:"prefetch-count"`
}

func (cfg *QueueConfig) Validate() error {
	if cfg.Url == "" {
		return fmt.Errorf("missing queue url")
	}
	if cfg.TransferQueueName == "" {
		return fmt.Errorf("missing transfer queue name")
	}
	if cfg.PrefetchCount <= 0 {
		return fmt.Errorf("queue prefetch-count must be positive")
	}
	return nil
}
