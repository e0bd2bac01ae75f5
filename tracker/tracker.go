// Package tracker embeds the rental tracker into another Go program.
//
// Setup:
//
//  1. Provision access keys with `simple-rental keys add <tenant>`
//  2. Create a Tracker and mount its routes
//
// Basic usage:
//
//	keys, _ := sql.Open("sqlite3", "db/valid_keys.db")
//
//	t, err := tracker.New(tracker.Config{
//	    KeyDB:     keys,
//	    DataDir:   "db",
//	    JWTSecret: "your-secret-key-at-least-32-chars",
//	})
//	if err != nil {
//	    log.Fatal(err) // Will fail if the key registry has no keys table
//	}
//	defer t.Close()
//
//	r := chi.NewRouter()
//	r.Mount("/", t.Router())
//	http.ListenAndServe(":9998", r)
package tracker

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/tendant/simple-rental/internal/config"
	httpserver "github.com/tendant/simple-rental/internal/http"
	"github.com/tendant/simple-rental/internal/http/middleware"
	"github.com/tendant/simple-rental/internal/metrics"
	"github.com/tendant/simple-rental/pkg/auth"
	"github.com/tendant/simple-rental/pkg/domain"
	"github.com/tendant/simple-rental/pkg/rental"
	"github.com/tendant/simple-rental/pkg/repository"
	"github.com/tendant/simple-rental/pkg/store"
)

// Config holds the configuration for an embedded tracker.
type Config struct {
	// KeyDB is the access key registry connection (required).
	KeyDB *sql.DB

	// DataDir holds one SQLite file per tenant (default: "db").
	DataDir string

	// JWTSecret signs bearer tokens (required, min 32 chars).
	JWTSecret string

	// JWTIssuer is the issuer claim in tokens (default: "simple-rental").
	JWTIssuer string

	// TokenTTL is the lifetime of bearer tokens (default: 365 days).
	TokenTTL time.Duration

	// Registerer receives the tracker metrics (optional).
	Registerer prometheus.Registerer

	// Logger is the structured logger (default: JSON to stdout).
	Logger *slog.Logger
}

// Tracker is an embeddable rental tracker instance.
type Tracker struct {
	config   Config
	keys     *auth.KeyAuthenticator
	resolver *store.Resolver
	tokens   *auth.TokenService
	service  *rental.Service
	metrics  *metrics.Metrics
}

// New creates a tracker with the given configuration.
// Returns an error if the key registry has no keys table.
func New(cfg Config) (*Tracker, error) {
	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)

	if err := validateSchema(cfg.KeyDB); err != nil {
		return nil, err
	}

	var m *metrics.Metrics
	if cfg.Registerer != nil {
		m = metrics.NewMetrics(cfg.Registerer)
	}

	return &Tracker{
		config:   cfg,
		keys:     auth.NewKeyAuthenticator(repository.NewKeysRepository(cfg.KeyDB), cfg.Logger),
		resolver: store.NewResolver(cfg.DataDir, cfg.Logger),
		tokens: auth.NewTokenService(auth.TokenConfig{
			Secret: []byte(cfg.JWTSecret),
			Issuer: cfg.JWTIssuer,
			TTL:    cfg.TokenTTL,
		}),
		service: rental.NewService(cfg.Logger, m),
		metrics: m,
	}, nil
}

// Router returns a chi router with all tracker routes.
//
// Routes:
//
//	POST /api/link            - Exchange an access key for a token
//	POST /api/write           - Toggle a rental and log it (protected)
//	POST /api/rentals/add     - Register rentals (protected)
//	POST /api/rentals/remove  - Remove a rental (protected)
//	GET  /api/status          - Current state of every rental (protected)
//	GET  /api/logs            - Event history (protected)
//	GET  /api/export          - Event history as CSV (protected)
//	POST /api/clear           - Clear the event history (protected)
//	GET  /health              - Health check
//
// Rate limiting is left to the host application.
func (t *Tracker) Router() chi.Router {
	return httpserver.NewRouter(httpserver.RouterConfig{
		Logger:        t.config.Logger,
		Authenticator: t.keys,
		Resolver:      t.resolver,
		TokenService:  t.tokens,
		RentalService: t.service,
		Metrics:       t.metrics,
		Validation:    config.ValidationConfig{MaxRequestBodySize: 1 << 20},
	}).(chi.Router)
}

// Handler returns an http.Handler for mounting with http.StripPrefix.
//
//	mux := http.NewServeMux()
//	mux.Handle("/rental/", http.StripPrefix("/rental", t.Handler()))
func (t *Tracker) Handler() http.Handler {
	return t.Router()
}

// Routes registers all tracker routes on an http.ServeMux with the given prefix.
func (t *Tracker) Routes(mux *http.ServeMux, prefix string) {
	mux.Handle(prefix+"/", http.StripPrefix(prefix, t.Router()))
}

// Service returns the rental service for direct use.
func (t *Tracker) Service() *rental.Service {
	return t.service
}

// Open returns the store of tenant. Callers must Release it.
func (t *Tracker) Open(ctx context.Context, tenant domain.TenantID) (*store.Store, error) {
	return t.resolver.Open(ctx, tenant)
}

// AuthMiddleware returns middleware that validates bearer tokens.
// Use this to protect your own tenant-scoped routes:
//
//	r.Group(func(r chi.Router) {
//	    r.Use(t.AuthMiddleware())
//	    r.Get("/report", handler)
//	})
func (t *Tracker) AuthMiddleware() func(http.Handler) http.Handler {
	return middleware.Auth(t.tokens)
}

// GetTenant extracts the tenant from a request.
// Use after AuthMiddleware.
func GetTenant(r *http.Request) (domain.TenantID, bool) {
	return middleware.GetTenant(r.Context())
}

// Close closes every open tenant store.
func (t *Tracker) Close() error {
	return t.resolver.Close()
}

func validateConfig(cfg *Config) error {
	if cfg.KeyDB == nil {
		return errors.New("tracker: KeyDB is required")
	}
	if cfg.JWTSecret == "" {
		return errors.New("tracker: JWTSecret is required")
	}
	if len(cfg.JWTSecret) < 32 {
		return errors.New("tracker: JWTSecret must be at least 32 characters")
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.DataDir == "" {
		cfg.DataDir = "db"
	}
	if cfg.JWTIssuer == "" {
		cfg.JWTIssuer = auth.DefaultIssuer
	}
	if cfg.TokenTTL == 0 {
		cfg.TokenTTL = auth.DefaultTokenTTL
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewJSONHandler(os.Stdout, nil))
	}
}

// validateSchema checks that the key registry table exists. The query is
// portable across SQLite and Postgres.
func validateSchema(db *sql.DB) error {
	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM keys`).Scan(&n)
	if err != nil {
		return fmt.Errorf("tracker: key registry not ready - run `simple-rental keys add` first: %w", err)
	}
	return nil
}
