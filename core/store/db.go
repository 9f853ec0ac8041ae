package store

import (
	"database/sql"
	"fmt"

	"incident-tracker/config"
	"incident-tracker/core/utils"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// Dialect selects the SQL flavor for placeholder binding and migrations.
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

func NewDB(cfg *config.AppConfig, logger *utils.Logger) (*sql.DB, Dialect, error) {
	driver, dialect := "pgx", DialectPostgres
	if cfg.DBDriver == "sqlite" {
		driver, dialect = "sqlite", DialectSQLite
	}
	db, err := sql.Open(driver, cfg.DBURL)
	if err != nil {
		return nil, "", fmt.Errorf("open database: %w", err)
	}
	if dialect == DialectSQLite {
		// modernc sqlite allows one writer; serialize access through a
		// single connection.
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, "", fmt.Errorf("ping database: %w", err)
	}
	if logger != nil {
		logger.Printf("connected to %s database", dialect)
	}
	return db, dialect, nil
}
