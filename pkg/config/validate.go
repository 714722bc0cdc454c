package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks a Config for structural correctness via the `validate`
// struct tags declared on Config and its subsections, plus a handful of
// cross-field rules the tags alone cannot express.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}

	if cfg.Telemetry.Enabled && cfg.Telemetry.Endpoint == "" {
		return fmt.Errorf("config validation: telemetry.endpoint is required when telemetry is enabled")
	}

	if cfg.Cache.DataDir == "" {
		return fmt.Errorf("config validation: cache.data_dir is required")
	}

	for name, ns := range cfg.Cache.Namespaces {
		if ns.TTL < 0 {
			return fmt.Errorf("config validation: cache.namespaces.%s.ttl must be non-negative", name)
		}
	}

	if cfg.Metrics.Enabled && cfg.Metrics.Port == 0 {
		return fmt.Errorf("config validation: metrics.port is required when metrics is enabled")
	}

	return nil
}
