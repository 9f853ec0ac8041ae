package store

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	"incident-tracker/core/utils"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// sqlite DDL mirroring the goose migrations; applied on sqlite databases
// where goose's postgres dialect does not apply.
var sqliteMigrations = []string{
	`CREATE TABLE IF NOT EXISTS incidents (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT NOT NULL,
		service TEXT NOT NULL,
		severity TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'OPEN',
		owner TEXT,
		summary TEXT,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);`,
	`CREATE INDEX IF NOT EXISTS idx_incidents_service ON incidents(service);`,
	`CREATE INDEX IF NOT EXISTS idx_incidents_severity ON incidents(severity);`,
	`CREATE INDEX IF NOT EXISTS idx_incidents_status ON incidents(status);`,
	`CREATE INDEX IF NOT EXISTS idx_incidents_created_id ON incidents(created_at DESC, id DESC);`,
}

func ApplyMigrations(ctx context.Context, db *sql.DB, dialect Dialect, logger *utils.Logger) error {
	switch dialect {
	case DialectSQLite:
		return applySQLiteMigrations(ctx, db, logger)
	case DialectPostgres:
		return applyGooseMigrations(ctx, db, logger)
	default:
		return fmt.Errorf("unsupported dialect %q", dialect)
	}
}

func applyGooseMigrations(ctx context.Context, db *sql.DB, logger *utils.Logger) error {
	goose.SetBaseFS(embedMigrations)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	if logger != nil {
		logger.Printf("postgres migrations applied")
	}
	return nil
}

func applySQLiteMigrations(ctx context.Context, db *sql.DB, logger *utils.Logger) error {
	for i, stmt := range sqliteMigrations {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("sqlite migration #%d failed: %w", i+1, err)
		}
	}
	if logger != nil {
		logger.Printf("sqlite migrations applied")
	}
	return nil
}
