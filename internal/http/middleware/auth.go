package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/tendant/simple-rental/internal/httputil"
	"github.com/tendant/simple-rental/pkg/auth"
	"github.com/tendant/simple-rental/pkg/domain"
)

type contextKey string

const (
	// TenantKey is the context key for the authenticated tenant.
	TenantKey contextKey = "tenant"
	// ClaimsKey is the context key for the token claims.
	ClaimsKey contextKey = "claims"
	// StoreKey is the context key for the tenant store opened for the request.
	StoreKey contextKey = "store"
)

// TokenValidator validates bearer tokens.
type TokenValidator interface {
	Validate(token string) (*auth.TenantClaims, error)
}

// Auth creates middleware that validates bearer tokens.
// Checks Authorization header first, then falls back to cookie for web clients.
func Auth(tokens TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := bearerToken(r)
			if tokenString == "" {
				if token, ok := httputil.GetTokenFromCookie(r); ok {
					tokenString = token
				}
			}

			if tokenString == "" {
				httputil.Error(w, http.StatusUnauthorized, "missing or invalid Authorization header")
				return
			}

			claims, err := tokens.Validate(tokenString)
			if err != nil {
				if errors.Is(err, domain.ErrInvalidTenantName) {
					httputil.Error(w, http.StatusBadRequest, "invalid database name")
					return
				}
				httputil.Error(w, http.StatusUnauthorized, "invalid token")
				return
			}

			ctx := context.WithValue(r.Context(), TenantKey, claims.Tenant())
			ctx = context.WithValue(ctx, ClaimsKey, claims)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireBearer rejects requests that do not carry the token in the
// Authorization header. Routes that mutate state on GET use it so a cookie
// alone, which browsers attach to cross-site navigations, is not enough.
func RequireBearer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if bearerToken(r) == "" {
			httputil.Error(w, http.StatusUnauthorized, "missing or invalid Authorization header")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// GetTenant extracts the tenant from the request context.
func GetTenant(ctx context.Context) (domain.TenantID, bool) {
	tenant, ok := ctx.Value(TenantKey).(domain.TenantID)
	return tenant, ok
}

// GetClaims extracts the token claims from the request context.
func GetClaims(ctx context.Context) (*auth.TenantClaims, bool) {
	claims, ok := ctx.Value(ClaimsKey).(*auth.TenantClaims)
	return claims, ok
}
