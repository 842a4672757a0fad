package db

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "github.com/duckdb/duckdb-go/v2"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/satheeshds/invoicehub/config"
)

// Open connects to the database named by cfg. DuckDB files are created on
// first use.
func Open(cfg config.DB) (*sql.DB, error) {
	var (
		db  *sql.DB
		err error
	)
	switch cfg.Driver {
	case config.DriverDuckDB:
		// Ensure the directory exists
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0755); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
		db, err = sql.Open("duckdb", cfg.Path)
	case config.DriverPostgres:
		db, err = sql.Open("pgx", cfg.URL)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Verify connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	if cfg.Driver == config.DriverDuckDB {
		slog.Info("database connected", "driver", cfg.Driver, "path", cfg.Path)
	} else {
		slog.Info("database connected", "driver", cfg.Driver)
	}
	return db, nil
}
