package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads a single YAML config file and merges it onto Defaults().
// Fields omitted in the file keep their default value.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return cfg, nil
}

// Validate checks the config for values the core cannot run with.
func (c *Config) Validate() error {
	if c.Workers.StageInWorkers < 1 {
		return fmt.Errorf("workers.stage_in_workers must be >= 1")
	}
	if c.Workers.StageOutWorkers < 1 {
		return fmt.Errorf("workers.stage_out_workers must be >= 1")
	}
	if c.Service.QueueTimeout <= 0 {
		return fmt.Errorf("service.queue_timeout must be positive")
	}
	if c.Service.RunnerTick <= 0 {
		return fmt.Errorf("service.runner_tick must be positive")
	}
	if c.Service.RunnerGracePeriod <= 0 {
		return fmt.Errorf("service.runner_grace_period must be positive")
	}
	return nil
}
