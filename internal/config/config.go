// Package config loads service configuration from the environment, with an
// optional .env file for local development.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config is the full configuration for the settlement ledger server.
type Config struct {
	Port int `env:"PORT" envDefault:"8080"`

	// ProgramID is the hex-encoded 32-byte program identity the treasury
	// address is derived from.
	ProgramID string `env:"PROGRAM_ID,required,notEmpty"`

	// DatabaseURL selects the Postgres store when set; the in-memory store
	// is used otherwise.
	DatabaseURL string `env:"DATABASE_URL"`

	// KafkaBrokers selects the Kafka publisher when non-empty; events are
	// captured in memory otherwise.
	KafkaBrokers []string `env:"KAFKA_BROKERS" envSeparator:","`

	// SessionCapacity bounds the in-memory processed-session index.
	SessionCapacity int `env:"SESSION_CAPACITY" envDefault:"65536"`
}

// Load reads .env if present, then parses the environment.
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
