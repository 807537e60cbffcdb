// Package database provides the core functionality for creating and managing
// database connections in a clean, isolated manner.
package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/AtRiskMedia/styletree-go/internal/infrastructure/observability/logging"
	_ "github.com/mattn/go-sqlite3"
	_ "github.com/tursodatabase/libsql-client-go/libsql"
)

// DB represents a wrapper around the standard SQL database connection.
type DB struct {
	*sql.DB
	Driver string
}

// Options selects and tunes the backing store.
type Options struct {
	Driver          string // "sqlite3" or "libsql"
	SQLitePath      string
	TursoURL        string
	TursoToken      string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// DataSourceName builds the driver-specific connection string.
func (o Options) DataSourceName() (string, error) {
	switch o.Driver {
	case "libsql":
		if o.TursoURL == "" {
			return "", fmt.Errorf("libsql driver requires a database url")
		}
		if o.TursoToken == "" {
			return o.TursoURL, nil
		}
		return fmt.Sprintf("%s?authToken=%s", o.TursoURL, o.TursoToken), nil
	case "sqlite3", "":
		if o.SQLitePath == "" {
			return "", fmt.Errorf("sqlite3 driver requires a path")
		}
		return o.SQLitePath + "?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on", nil
	default:
		return "", fmt.Errorf("unsupported database driver %q", o.Driver)
	}
}

// NewConnection establishes a new database connection for the given options.
func NewConnection(opts Options, logger *logging.ChanneledLogger) (*DB, error) {
	start := time.Now()
	if opts.Driver == "" {
		opts.Driver = "sqlite3"
	}
	logger.Database().Debug("Creating new database connection", "driverName", opts.Driver)

	dsn, err := opts.DataSourceName()
	if err != nil {
		return nil, err
	}
	if opts.Driver == "sqlite3" {
		if dir := filepath.Dir(opts.SQLitePath); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
	}

	db, err := sql.Open(opts.Driver, dsn)
	if err != nil {
		logger.Database().Error("Failed to open database connection", "error", err.Error(), "driverName", opts.Driver)
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if opts.MaxOpenConns > 0 {
		db.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		db.SetMaxIdleConns(opts.MaxIdleConns)
	}
	if opts.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(opts.ConnMaxLifetime)
	}
	if opts.ConnMaxIdleTime > 0 {
		db.SetConnMaxIdleTime(opts.ConnMaxIdleTime)
	}

	if err = db.Ping(); err != nil {
		db.Close()
		logger.Database().Error("Database ping failed", "error", err.Error(), "driverName", opts.Driver)
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Database().Info("Database connection established", "driverName", opts.Driver, "duration", time.Since(start))
	return &DB{DB: db, Driver: opts.Driver}, nil
}
