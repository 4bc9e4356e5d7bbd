package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config contains service configuration parameters.
type Config struct {
	HTTPAddr        string        `env:"HTTP_ADDR" envDefault:":3001"`
	DatabasePath    string        `env:"AUTH_DB_PATH" envDefault:"data/auth.db"`
	JWTSecret       string        `env:"JWT_SECRET"`
	AccessTokenTTL  time.Duration `env:"ACCESS_TOKEN_TTL" envDefault:"15m"`
	RefreshTokenTTL time.Duration `env:"REFRESH_TOKEN_TTL" envDefault:"168h"`
}

// Load parses configuration from environment variables. A missing JWT
// secret is a startup error: the process must refuse to start without it.
func Load() (*Config, error) {
	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.JWTSecret = strings.TrimSpace(cfg.JWTSecret)

	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func validate(cfg *Config) error {
	if cfg.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required to start the auth service")
	}
	if cfg.DatabasePath == "" {
		return fmt.Errorf("AUTH_DB_PATH must not be empty")
	}
	if cfg.AccessTokenTTL <= 0 {
		return fmt.Errorf("ACCESS_TOKEN_TTL must be > 0")
	}
	if cfg.RefreshTokenTTL <= 0 {
		return fmt.Errorf("REFRESH_TOKEN_TTL must be > 0")
	}
	return nil
}
