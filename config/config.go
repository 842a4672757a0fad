// Package config reads the service settings from environment variables.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"
)

// Database drivers accepted in DB_DRIVER.
const (
	DriverDuckDB   = "duckdb"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type Config struct {
	Port     string
	LogLevel slog.Level
	DB       DB
	Token    Token
	// APIKey guards the maintenance endpoints (X-KEY header). Empty disables
	// them.
	APIKey        string
	SweepInterval time.Duration // 0 disables the background sweep
}

type DB struct {
	Driver string
	Path   string // duckdb file
	URL    string // postgres DSN
}

type Token struct {
	Secret string
	Issuer string
	TTL    time.Duration
}

// Load builds a Config from the environment, applying defaults for
// optional settings.
func Load() (Config, error) {
	cfg := Config{
		Port: getenv("PORT", "8080"),
		DB: DB{
			Driver: getenv("DB_DRIVER", DriverDuckDB),
			Path:   getenv("DB_PATH", "./data/invoicehub.duckdb"),
			URL:    os.Getenv("DATABASE_URL"),
		},
		Token: Token{
			Secret: os.Getenv("TOKEN_SECRET"),
			Issuer: getenv("TOKEN_ISSUER", "invoicehub"),
		},
		APIKey: os.Getenv("API_KEY"),
	}

	if err := cfg.LogLevel.UnmarshalText([]byte(getenv("LOG_LEVEL", "info"))); err != nil {
		return Config{}, fmt.Errorf("LOG_LEVEL must be one of debug, info, warn, error")
	}

	minutes, err := strconv.Atoi(getenv("TOKEN_ACCESS_EXPIRE_MINUTES", "60"))
	if err != nil || minutes <= 0 {
		return Config{}, fmt.Errorf("TOKEN_ACCESS_EXPIRE_MINUTES must be a positive number of minutes")
	}
	cfg.Token.TTL = time.Duration(minutes) * time.Minute

	cfg.SweepInterval, err = time.ParseDuration(getenv("SWEEP_INTERVAL", "1h"))
	if err != nil || cfg.SweepInterval < 0 {
		return Config{}, fmt.Errorf("SWEEP_INTERVAL must be a non-negative duration such as 30m")
	}

	switch cfg.DB.Driver {
	case DriverDuckDB, DriverMemory:
	case DriverPostgres:
		if cfg.DB.URL == "" {
			return Config{}, fmt.Errorf("DATABASE_URL is required when DB_DRIVER=%s", DriverPostgres)
		}
	default:
		return Config{}, fmt.Errorf("unknown DB_DRIVER %q", cfg.DB.Driver)
	}

	if cfg.Token.Secret == "" && cfg.DB.Driver != DriverMemory {
		return Config{}, fmt.Errorf("TOKEN_SECRET is required")
	}
	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
