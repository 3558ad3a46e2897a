package config

import (
	"errors"
	"fmt"
	"os"
	"time"
)

type Config struct {
	Port        string
	Env         string
	PostgresDSN string

	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

func getenv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func New() (*Config, error) {
	c := &Config{
		Port:          getenv("PORT", "8080"),
		Env:           getenv("APP_ENV", "development"),
		PostgresDSN:   getenv("POSTGRES_DSN", ""),
		AccessSecret:  getenv("JWT_ACCESS_SECRET", "dev-access-secret"),
		RefreshSecret: getenv("JWT_REFRESH_SECRET", "dev-refresh-secret"),
	}

	if c.PostgresDSN == "" {
		c.PostgresDSN = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
			getenv("POSTGRES_USER", "postgres"),
			getenv("POSTGRES_PASSWORD", "postgres"),
			getenv("POSTGRES_HOST", "localhost"),
			getenv("POSTGRES_PORT", "5432"),
			getenv("POSTGRES_DB", "taskboard"),
			getenv("POSTGRES_SSLMODE", "disable"),
		)
	}

	var err error
	c.AccessTTL, err = time.ParseDuration(getenv("JWT_ACCESS_EXPIRATION", "15m"))
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_ACCESS_EXPIRATION: %w", err)
	}
	c.RefreshTTL, err = time.ParseDuration(getenv("JWT_REFRESH_EXPIRATION", "168h"))
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_REFRESH_EXPIRATION: %w", err)
	}

	if c.IsProduction() {
		if os.Getenv("JWT_ACCESS_SECRET") == "" || os.Getenv("JWT_REFRESH_SECRET") == "" {
			return nil, errors.New("JWT_ACCESS_SECRET and JWT_REFRESH_SECRET must be set in production")
		}
	}

	return c, nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}
