package db

import (
	"database/sql"
	"embed"
	"fmt"
	"log/slog"

	"github.com/pressly/goose/v3"
	"github.com/satheeshds/invoicehub/config"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Migrate brings the schema up to date. Postgres uses the versioned goose
// migrations; DuckDB runs the idempotent statements in duckdbSchema.
func Migrate(db *sql.DB, driver string) error {
	slog.Info("running database migrations", "driver", driver)

	switch driver {
	case config.DriverPostgres:
		goose.SetBaseFS(migrationFiles)
		if err := goose.SetDialect("postgres"); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		if err := goose.Up(db, "migrations"); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	case config.DriverDuckDB:
		for _, stmt := range duckdbSchema {
			if _, err := db.Exec(stmt); err != nil {
				return fmt.Errorf("migration failed: %w\nstatement: %s", err, stmt)
			}
		}
	default:
		return fmt.Errorf("unsupported database driver %q", driver)
	}

	slog.Info("database migrations complete")
	return nil
}

// duckdbSchema mirrors migrations/00001_init.sql without the foreign keys
// and without an index on paid_status, which DuckDB would rewrite on every
// status change. Safe to run repeatedly.
var duckdbSchema = []string{
	`CREATE SEQUENCE IF NOT EXISTS purchase_seq`,

	`CREATE TABLE IF NOT EXISTS users (
		id VARCHAR PRIMARY KEY,
		name VARCHAR NOT NULL,
		lastname VARCHAR NOT NULL,
		email VARCHAR NOT NULL UNIQUE,
		username VARCHAR NOT NULL UNIQUE,
		password_hash VARCHAR NOT NULL,
		spending_limit DECIMAL(14,2),
		reserve_fund DECIMAL(14,2),
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,

	// Creditors: banks, payment slips, people and other users
	`CREATE TABLE IF NOT EXISTS creditors (
		id VARCHAR PRIMARY KEY,
		user_id VARCHAR NOT NULL,
		creditor_type VARCHAR NOT NULL CHECK(creditor_type IN ('USER', 'BANK', 'PAYMENT_SLIP', 'PUBLIC_PERSON')),
		name VARCHAR NOT NULL,
		due_day INTEGER NOT NULL CHECK(due_day BETWEEN 1 AND 31),
		limit_value DECIMAL(14,2),
		enabled BOOLEAN NOT NULL DEFAULT TRUE,
		user_as_creditor_id VARCHAR,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,

	// Purchases; rows with invoice_parent_id set are splits
	`CREATE TABLE IF NOT EXISTS purchases (
		id VARCHAR PRIMARY KEY,
		seq BIGINT NOT NULL DEFAULT nextval('purchase_seq'),
		user_id VARCHAR NOT NULL,
		creditor_id VARCHAR,
		purchase_date DATE NOT NULL,
		title VARCHAR NOT NULL,
		value DECIMAL(14,2) NOT NULL CHECK(value > 0),
		payment_type VARCHAR NOT NULL CHECK(payment_type IN ('CASH', 'INSTALLMENT', 'FIXED')),
		installments INTEGER CHECK(installments > 0),
		paid_status VARCHAR NOT NULL CHECK(paid_status IN ('PENDING', 'OVERDUE', 'PAID')),
		enabled BOOLEAN NOT NULL DEFAULT TRUE,
		invoice_parent_id VARCHAR,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_creditors_user ON creditors(user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_purchases_user ON purchases(user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_purchases_parent ON purchases(invoice_parent_id)`,
}
