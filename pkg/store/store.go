// Package store resolves tenant identifiers to their isolated SQLite databases.
package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"sync"

	_ "github.com/mattn/go-sqlite3"
	"github.com/tendant/simple-rental/pkg/domain"
)

//go:embed schema.sql
var schemaSQL string

// Store is an open handle on one tenant's database.
// Writers must hold the store lock (see WithTx); readers may run concurrently.
type Store struct {
	tenant domain.TenantID
	path   string
	db     *sql.DB

	writeMu sync.Mutex

	// guarded by Resolver.mu
	refs     int
	resolver *Resolver
}

// Tenant returns the tenant that owns the store.
func (s *Store) Tenant() domain.TenantID {
	return s.tenant
}

// Path returns the database file backing the store.
func (s *Store) Path() string {
	return s.path
}

// DB returns the underlying database for read queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

// WithTx runs fn inside a write transaction under the store lock.
// The transaction starts with BEGIN IMMEDIATE, so it holds the SQLite write
// lock from its first statement. fn's error rolls the transaction back.
func (s *Store) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// Release gives the handle back to its resolver. The database is closed once
// no request holds it.
func (s *Store) Release() error {
	if s.resolver == nil {
		return s.db.Close()
	}
	return s.resolver.release(s)
}

// openDB opens a SQLite file with WAL, a busy timeout and immediate write
// transactions. Connection-level settings go in the DSN so every pooled
// connection gets them.
func openDB(ctx context.Context, path string) (*sql.DB, error) {
	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000&_txlock=immediate", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// applySchema creates the rentals and log tables. Idempotent.
func applySchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	return nil
}
