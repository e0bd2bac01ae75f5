package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/tendant/simple-rental/pkg/domain"
)

// AccessKey is one provisioned key and the tenant it unlocks.
type AccessKey struct {
	Key       string
	Tenant    domain.TenantID
	CreatedAt time.Time
}

// KeysRepository reads and provisions the shared access key registry.
// Queries use $n placeholders, which both lib/pq and go-sqlite3 accept.
type KeysRepository struct {
	db *sql.DB
}

// NewKeysRepository creates a new keys repository.
func NewKeysRepository(db *sql.DB) *KeysRepository {
	return &KeysRepository{db: db}
}

// EnsureSchema creates the keys table if missing. Only the provisioning
// commands call this; serving never creates the registry.
func (r *KeysRepository) EnsureSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS keys (
			key        TEXT PRIMARY KEY,
			tenant     TEXT NOT NULL UNIQUE,
			created_at TIMESTAMP NOT NULL
		)
	`
	_, err := r.db.ExecContext(ctx, query)
	return err
}

// GetTenant returns the tenant bound to key.
func (r *KeysRepository) GetTenant(ctx context.Context, key string) (domain.TenantID, error) {
	query := `SELECT tenant FROM keys WHERE key = $1`

	var tenant string
	err := r.db.QueryRowContext(ctx, query, key).Scan(&tenant)
	if errors.Is(err, sql.ErrNoRows) {
		return "", domain.ErrInvalidKey
	}
	if err != nil {
		return "", err
	}
	return domain.TenantID(tenant), nil
}

// Create provisions a new key.
func (r *KeysRepository) Create(ctx context.Context, key *AccessKey) error {
	query := `
		INSERT INTO keys (key, tenant, created_at)
		VALUES ($1, $2, $3)
	`
	_, err := r.db.ExecContext(ctx, query, key.Key, key.Tenant.String(), key.CreatedAt.UTC())
	return err
}

// List returns every provisioned key ordered by tenant.
func (r *KeysRepository) List(ctx context.Context) ([]*AccessKey, error) {
	query := `SELECT key, tenant, created_at FROM keys ORDER BY tenant`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []*AccessKey
	for rows.Next() {
		k := &AccessKey{}
		var tenant string
		if err := rows.Scan(&k.Key, &tenant, &k.CreatedAt); err != nil {
			return nil, err
		}
		k.Tenant = domain.TenantID(tenant)
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// Delete revokes a key.
func (r *KeysRepository) Delete(ctx context.Context, key string) error {
	query := `DELETE FROM keys WHERE key = $1`
	result, err := r.db.ExecContext(ctx, query, key)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrInvalidKey
	}
	return nil
}
