package store

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/tendant/simple-rental/pkg/domain"
)

// Resolver maps tenants to their stores under a single data directory.
// Handles are shared between concurrent users of the same tenant so that
// the store lock serializes all writers in this process.
type Resolver struct {
	dir    string
	logger *slog.Logger

	mu     sync.Mutex
	stores map[domain.TenantID]*Store
}

// NewResolver creates a resolver rooted at dir.
func NewResolver(dir string, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		dir:    dir,
		logger: logger,
		stores: make(map[domain.TenantID]*Store),
	}
}

// Dir returns the data directory.
func (r *Resolver) Dir() string {
	return r.dir
}

// PathFor returns the database file for a tenant. The tenant must already be
// validated; this is the only place a tenant id becomes a path.
func (r *Resolver) PathFor(tenant domain.TenantID) (string, error) {
	if !tenant.Valid() {
		return "", fmt.Errorf("%w: %q", domain.ErrInvalidTenantName, string(tenant))
	}
	return filepath.Join(r.dir, tenant.String()+".db"), nil
}

// Open validates the tenant, creates its database and tables if missing and
// returns a handle. Every successful Open must be paired with Release.
func (r *Resolver) Open(ctx context.Context, tenant domain.TenantID) (*Store, error) {
	path, err := r.PathFor(tenant)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if st, ok := r.stores[tenant]; ok {
		st.refs++
		return st, nil
	}

	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create data dir: %w", domain.ErrStorageFailure, err)
	}

	db, err := openDB(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrStorageFailure, err)
	}
	if err := applySchema(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %w", domain.ErrStorageFailure, err)
	}

	st := &Store{
		tenant:   tenant,
		path:     path,
		db:       db,
		refs:     1,
		resolver: r,
	}
	r.stores[tenant] = st
	r.logger.Debug("opened tenant store", "tenant", tenant.String(), "path", path)
	return st, nil
}

// OpenByName parses name as a tenant id and opens its store.
func (r *Resolver) OpenByName(ctx context.Context, name string) (*Store, error) {
	tenant, err := domain.ParseTenantID(name)
	if err != nil {
		return nil, err
	}
	return r.Open(ctx, tenant)
}

// Close closes every open store regardless of outstanding references.
func (r *Resolver) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var firstErr error
	for tenant, st := range r.stores {
		if err := st.db.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(r.stores, tenant)
	}
	return firstErr
}

func (r *Resolver) release(st *Store) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	st.refs--
	if st.refs > 0 {
		return nil
	}
	if cur, ok := r.stores[st.tenant]; ok && cur == st {
		delete(r.stores, st.tenant)
	}
	return st.db.Close()
}
