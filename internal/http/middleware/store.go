package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/tendant/simple-rental/internal/httputil"
	"github.com/tendant/simple-rental/pkg/domain"
	"github.com/tendant/simple-rental/pkg/store"
)

// StoreOpener opens the store of a tenant.
type StoreOpener interface {
	Open(ctx context.Context, tenant domain.TenantID) (*store.Store, error)
}

// TenantStore creates middleware that opens the authenticated tenant's store
// for the duration of the request. Must be used after Auth middleware.
func TenantStore(stores StoreOpener, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tenant, ok := GetTenant(r.Context())
			if !ok {
				httputil.Error(w, http.StatusUnauthorized, "authentication required")
				return
			}

			st, err := stores.Open(r.Context(), tenant)
			if err != nil {
				if errors.Is(err, domain.ErrInvalidTenantName) {
					httputil.Error(w, http.StatusBadRequest, "invalid database name")
					return
				}
				logger.Error("failed to open tenant store", "tenant", tenant.String(), "error", err)
				httputil.Error(w, http.StatusInternalServerError, "failed to open tenant store")
				return
			}
			defer func() {
				if err := st.Release(); err != nil {
					logger.Warn("failed to release tenant store", "tenant", tenant.String(), "error", err)
				}
			}()

			ctx := context.WithValue(r.Context(), StoreKey, st)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetStore extracts the tenant store from the request context.
func GetStore(ctx context.Context) (*store.Store, bool) {
	st, ok := ctx.Value(StoreKey).(*store.Store)
	return st, ok
}
