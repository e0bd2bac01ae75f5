package auth

import (
	"context"
	"errors"
	"log/slog"

	"github.com/tendant/simple-rental/pkg/domain"
)

// KeyStore looks up the tenant bound to an access key.
type KeyStore interface {
	GetTenant(ctx context.Context, key string) (domain.TenantID, error)
}

// KeyAuthenticator validates access keys against the shared registry.
type KeyAuthenticator struct {
	keys   KeyStore
	logger *slog.Logger
}

// NewKeyAuthenticator creates a new key authenticator.
func NewKeyAuthenticator(keys KeyStore, logger *slog.Logger) *KeyAuthenticator {
	if logger == nil {
		logger = slog.Default()
	}
	return &KeyAuthenticator{keys: keys, logger: logger}
}

// Authenticate returns the tenant bound to accessKey.
// Unknown keys, a missing registry and registry errors all fail with
// domain.ErrInvalidKey; the underlying cause is only logged.
func (a *KeyAuthenticator) Authenticate(ctx context.Context, accessKey string) (domain.TenantID, error) {
	if accessKey == "" || a.keys == nil {
		return "", domain.ErrInvalidKey
	}

	tenant, err := a.keys.GetTenant(ctx, accessKey)
	if err != nil {
		if !errors.Is(err, domain.ErrInvalidKey) {
			a.logger.Error("key registry lookup failed", "error", err)
		}
		return "", domain.ErrInvalidKey
	}

	// The registry is provisioned out of band; never hand an unchecked name
	// to the store layer.
	if !tenant.Valid() {
		a.logger.Error("key registry holds invalid tenant name", "tenant", tenant.String())
		return "", domain.ErrInvalidTenantName
	}
	return tenant, nil
}
