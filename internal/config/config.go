// Package config loads process configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App struct {
		Env      string `envconfig:"APP_ENV" default:"development"`
		Port     int    `envconfig:"APP_PORT" default:"8080"`
		LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	}

	DB struct {
		DSN      string `envconfig:"DATABASE_URL" required:"true"`
		MaxConns int32  `envconfig:"DB_MAX_CONNS" default:"25"`
		MinConns int32  `envconfig:"DB_MIN_CONNS" default:"5"`
	}

	Auth struct {
		JWTSecret string `envconfig:"JWT_SECRET" default:"change-me-in-production"`
		Disabled  bool   `envconfig:"AUTH_DISABLED" default:"false"`
	}

	Reconciliation struct {
		// FeePolicy selects the management fee rule: "additive" or "subsume".
		FeePolicy string `envconfig:"FEE_POLICY" default:"additive"`
	}

	Sweeper struct {
		Interval time.Duration `envconfig:"SWEEP_INTERVAL" default:"1h"`
	}
}

func (c *Config) Development() bool {
	return c.App.Env == "development"
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	return &cfg, nil
}
