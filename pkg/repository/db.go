package repository

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Supported key registry drivers.
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

// Config holds the key registry database settings.
type Config struct {
	Driver string
	DSN    string
}

// NewDB opens the shared key registry database.
func NewDB(cfg Config) (*sql.DB, error) {
	// An empty sqlite3 DSN opens a temporary database that vanishes on close.
	if cfg.DSN == "" {
		return nil, fmt.Errorf("key registry DSN is required")
	}
	switch cfg.Driver {
	case DriverSQLite:
		// The registry file lives next to the tenant stores; make sure its
		// directory exists before sqlite tries to create the file.
		if dir := filepath.Dir(cfg.DSN); dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create registry dir: %w", err)
			}
		}
	case DriverPostgres:
	default:
		return nil, fmt.Errorf("unsupported key registry driver %q", cfg.Driver)
	}

	db, err := sql.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open key registry: %w", err)
	}
	if err := db.PingContext(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect key registry: %w", err)
	}
	return db, nil
}
