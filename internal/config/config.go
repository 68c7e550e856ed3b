// Package config loads and validates process-wide configuration from the
// environment. Configuration is read once at startup and never mutated after.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"go.uber.org/multierr"
)

// Mode identifies which of the three isolated datasets this process addresses.
type Mode string

const (
	ModeLocal      Mode = "local"
	ModePreview    Mode = "preview"
	ModeProduction Mode = "production"
)

type Config struct {
	Mode    Mode   `env:"HEARTHLEDGER_MODE" envDefault:"local"`
	Port    string `env:"HEARTHLEDGER_PORT" envDefault:"8080"`
	DBPath  string `env:"HEARTHLEDGER_DB_PATH" envDefault:"hearthledger.db"`
	BaseURL string `env:"HEARTHLEDGER_BASE_URL" envDefault:"http://localhost:8080"`

	LogLevel string `env:"HEARTHLEDGER_LOG_LEVEL" envDefault:"info"`

	PostmarkToken string `env:"HEARTHLEDGER_POSTMARK_TOKEN"`
	EmailFrom     string `env:"HEARTHLEDGER_EMAIL_FROM"`
}

// Load parses configuration from the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return &cfg, nil
}

// RootPrefix returns the storage path prefix for the configured mode: empty
// for local, "environments/preview" or "environments/production" otherwise.
func (c *Config) RootPrefix() string {
	switch c.Mode {
	case ModePreview:
		return "environments/preview"
	case ModeProduction:
		return "environments/production"
	default:
		return ""
	}
}

// Validate checks the configuration and reports every problem at once rather
// than stopping at the first, so an operator sees the full list of missing
// values in a single failure.
func (c *Config) Validate() error {
	var errs error

	switch c.Mode {
	case ModeLocal, ModePreview, ModeProduction:
	default:
		errs = multierr.Append(errs, fmt.Errorf("mode %q is not one of local, preview, production", c.Mode))
	}

	if c.DBPath == "" {
		errs = multierr.Append(errs, fmt.Errorf("HEARTHLEDGER_DB_PATH is required"))
	}
	if c.BaseURL == "" {
		errs = multierr.Append(errs, fmt.Errorf("HEARTHLEDGER_BASE_URL is required"))
	}

	// Non-local environments send real mail; the client must be configured.
	if c.Mode != ModeLocal {
		if c.PostmarkToken == "" {
			errs = multierr.Append(errs, fmt.Errorf("HEARTHLEDGER_POSTMARK_TOKEN is required in %s mode", c.Mode))
		}
		if c.EmailFrom == "" {
			errs = multierr.Append(errs, fmt.Errorf("HEARTHLEDGER_EMAIL_FROM is required in %s mode", c.Mode))
		}
	}

	if errs != nil {
		return fmt.Errorf("invalid configuration: %w", errs)
	}
	return nil
}
