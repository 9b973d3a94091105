package main

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds process configuration, loaded from MCP_-prefixed environment
// variables.
type Config struct {
	Host          string        `env:"HOST" envDefault:"0.0.0.0"`
	Port          int           `env:"PORT" envDefault:"8000"`
	LogLevel      string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat     string        `env:"LOG_FORMAT" envDefault:"json"`
	SearchTimeout time.Duration `env:"SEARCH_TIMEOUT" envDefault:"30s"`
}

// LoadConfig reads configuration from the environment.
func LoadConfig() (Config, error) {
	cfg, err := env.ParseAsWithOptions[Config](env.Options{Prefix: "MCP_"})
	if err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Addr is the host:port the HTTP server binds to.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
