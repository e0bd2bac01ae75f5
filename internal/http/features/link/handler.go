package link

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/tendant/simple-rental/internal/http/features/common"
	"github.com/tendant/simple-rental/internal/httputil"
	"github.com/tendant/simple-rental/internal/metrics"
	"github.com/tendant/simple-rental/pkg/auth"
	"github.com/tendant/simple-rental/pkg/domain"
	"github.com/tendant/simple-rental/pkg/store"
)

// Authenticator resolves an access key to its tenant.
type Authenticator interface {
	Authenticate(ctx context.Context, accessKey string) (domain.TenantID, error)
}

// StoreOpener opens the store of a tenant.
type StoreOpener interface {
	Open(ctx context.Context, tenant domain.TenantID) (*store.Store, error)
}

// Handler exchanges access keys for bearer tokens.
type Handler struct {
	logger        *slog.Logger
	authenticator Authenticator
	stores        StoreOpener
	tokens        *auth.TokenService
	metrics       *metrics.Metrics
	cookieConfig  httputil.CookieConfig
}

// NewHandler creates a new link handler.
func NewHandler(
	logger *slog.Logger,
	authenticator Authenticator,
	stores StoreOpener,
	tokens *auth.TokenService,
	m *metrics.Metrics,
	cookieConfig httputil.CookieConfig,
) *Handler {
	return &Handler{
		logger:        logger,
		authenticator: authenticator,
		stores:        stores,
		tokens:        tokens,
		metrics:       m,
		cookieConfig:  cookieConfig,
	}
}

// LinkRequest represents an access key exchange request.
type LinkRequest struct {
	Key string `json:"key"`
}

// LinkResponse carries the bearer token for the linked tenant.
type LinkResponse struct {
	Token     string `json:"token"`
	TokenType string `json:"token_type"`
	ExpiresIn int    `json:"expires_in"`
}

// Link exchanges an access key for a bearer token.
// POST /api/link
//
// The tenant store is created on first link so later requests find it.
// Browser clients also receive the token as an HttpOnly cookie.
func (h *Handler) Link(w http.ResponseWriter, r *http.Request) {
	var req LinkRequest
	if !common.DecodeJSON(w, r, &req) {
		return
	}

	tenant, err := h.authenticator.Authenticate(r.Context(), req.Key)
	if err != nil {
		h.count("rejected")
		if errors.Is(err, domain.ErrInvalidTenantName) {
			httputil.Error(w, http.StatusBadRequest, "invalid database name")
			return
		}
		httputil.Error(w, http.StatusUnauthorized, "invalid key")
		return
	}

	st, err := h.stores.Open(r.Context(), tenant)
	if err != nil {
		h.count("error")
		h.logger.Error("failed to prepare tenant store", "tenant", tenant.String(), "error", err)
		common.WriteError(w, err, "failed to prepare tenant store")
		return
	}
	if err := st.Release(); err != nil {
		h.logger.Warn("failed to release tenant store", "tenant", tenant.String(), "error", err)
	}

	token, _, err := h.tokens.Issue(tenant)
	if err != nil {
		h.count("error")
		h.logger.Error("failed to issue token", "tenant", tenant.String(), "error", err)
		httputil.Error(w, http.StatusInternalServerError, "failed to issue token")
		return
	}

	if !httputil.IsMobileClient(r) {
		httputil.SetTokenCookie(w, token, h.tokens.TTL(), h.cookieConfig)
	}

	h.count("ok")
	h.logger.Info("tenant linked", "tenant", tenant.String())
	httputil.JSON(w, http.StatusOK, LinkResponse{
		Token:     token,
		TokenType: "Bearer",
		ExpiresIn: int(h.tokens.TTL().Seconds()),
	})
}

func (h *Handler) count(result string) {
	if h.metrics != nil {
		h.metrics.LinksTotal.WithLabelValues(result).Inc()
	}
}
