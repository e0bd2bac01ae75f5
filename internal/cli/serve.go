package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/tendant/simple-rental/internal/config"
	httpserver "github.com/tendant/simple-rental/internal/http"
	"github.com/tendant/simple-rental/internal/metrics"
	"github.com/tendant/simple-rental/pkg/auth"
	"github.com/tendant/simple-rental/pkg/rental"
	"github.com/tendant/simple-rental/pkg/repository"
	"github.com/tendant/simple-rental/pkg/store"
)

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Run the HTTP API. Configuration is read from the environment
(see SERVER_PORT, DATA_DIR, KEY_REGISTRY_DSN, JWT_SECRET).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(rootOpts)
			slog.SetDefault(logger)
			return runServe(logger)
		},
	}
}

func runServe(logger *slog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	db, err := repository.NewDB(repository.Config{
		Driver: cfg.KeyRegistryDriver,
		DSN:    cfg.KeyRegistryDSN,
	})
	if err != nil {
		return err
	}
	defer db.Close()

	logger.Info("connected to key registry", "driver", cfg.KeyRegistryDriver)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.NewMetrics(reg)

	resolver := store.NewResolver(cfg.DataDir, logger)
	defer resolver.Close()

	tokenService := auth.NewTokenService(auth.TokenConfig{
		Secret: []byte(cfg.JWTSecret),
		Issuer: cfg.JWTIssuer,
		TTL:    cfg.TokenTTL,
	})

	router := httpserver.NewRouter(httpserver.RouterConfig{
		Logger:          logger,
		Authenticator:   auth.NewKeyAuthenticator(repository.NewKeysRepository(db), logger),
		Resolver:        resolver,
		TokenService:    tokenService,
		RentalService:   rental.NewService(logger, m),
		Metrics:         m,
		Gatherer:        reg,
		RateLimitConfig: cfg.RateLimit,
		SecurityHeaders: cfg.SecurityHeaders,
		Validation:      cfg.Validation,
		CookieSecure:    cfg.CookieSecure,
	})

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", "addr", server.Addr, "data_dir", cfg.DataDir)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}

	logger.Info("shutting down server")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	logger.Info("server stopped")
	return nil
}
