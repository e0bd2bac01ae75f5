package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tendant/simple-rental/internal/config"
	"github.com/tendant/simple-rental/internal/http/features/link"
	"github.com/tendant/simple-rental/internal/http/features/logs"
	"github.com/tendant/simple-rental/internal/http/features/rentals"
	"github.com/tendant/simple-rental/internal/http/middleware"
	"github.com/tendant/simple-rental/internal/httputil"
	"github.com/tendant/simple-rental/internal/metrics"
	"github.com/tendant/simple-rental/pkg/auth"
	"github.com/tendant/simple-rental/pkg/rental"
	"github.com/tendant/simple-rental/pkg/store"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Logger          *slog.Logger
	Authenticator   link.Authenticator
	Resolver        *store.Resolver
	TokenService    *auth.TokenService
	RentalService   *rental.Service
	Metrics         *metrics.Metrics
	Gatherer        prometheus.Gatherer // Serves /metrics when set
	RateLimitConfig config.RateLimitConfig
	SecurityHeaders config.SecurityHeadersConfig
	Validation      config.ValidationConfig
	CookieSecure    bool // Whether to use Secure flag on cookies (should be true for HTTPS)
}

// NewRouter creates a new HTTP router with all routes registered.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Apply global middleware
	r.Use(middleware.Logging(cfg.Logger))
	r.Use(middleware.Recover(cfg.Logger))
	r.Use(middleware.Metrics(cfg.Metrics))
	r.Use(middleware.SecurityHeaders(cfg.SecurityHeaders))
	r.Use(middleware.RequestSizeLimit(cfg.Validation.MaxRequestBodySize))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	if cfg.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	rateLimiters := middleware.CreateRateLimiters(cfg.RateLimitConfig, cfg.Logger)

	cookieConfig := httputil.DefaultCookieConfig()
	cookieConfig.Secure = cfg.CookieSecure

	// Access key exchange
	linkHandler := link.NewHandler(
		cfg.Logger,
		cfg.Authenticator,
		cfg.Resolver,
		cfg.TokenService,
		cfg.Metrics,
		cookieConfig,
	)
	r.With(rateLimiters[middleware.LimiterLink]).Post("/api/link", linkHandler.Link)

	// Tenant-scoped rental API
	rentalsHandler := rentals.NewHandler(cfg.Logger, cfg.RentalService)
	logsHandler := logs.NewHandler(cfg.Logger, cfg.RentalService)
	r.Group(func(r chi.Router) {
		r.Use(rateLimiters[middleware.LimiterAPI])
		r.Use(middleware.Auth(cfg.TokenService))
		r.Use(middleware.TenantStore(cfg.Resolver, cfg.Logger))

		r.Post("/api/write", logsHandler.Write)
		r.Get("/api/logs", logsHandler.List)
		r.Get("/api/export", logsHandler.Export)
		r.Post("/api/clear", logsHandler.Clear)
		// Older clients clear with a GET; those must send the header.
		r.With(middleware.RequireBearer).Get("/api/clear", logsHandler.Clear)

		r.Post("/api/rentals/add", rentalsHandler.Add)
		r.Post("/api/rentals/remove", rentalsHandler.Remove)
		r.Get("/api/status", rentalsHandler.Status)
	})

	return r
}
