package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/httprate"
	"github.com/tendant/simple-rental/internal/config"
	"github.com/tendant/simple-rental/internal/httputil"
)

// Rate limiter names.
const (
	LimiterLink = "link"
	LimiterAPI  = "api"
)

// RateLimitConfig holds rate limiting configuration for a specific endpoint type.
type RateLimitConfig struct {
	Requests int
	Window   time.Duration
	Logger   *slog.Logger
}

// RateLimit creates an IP-based rate limiter middleware with logging.
func RateLimit(cfg RateLimitConfig) func(http.Handler) http.Handler {
	return httprate.Limit(
		cfg.Requests,
		cfg.Window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			if cfg.Logger != nil {
				cfg.Logger.Warn("rate limit exceeded",
					"ip", r.RemoteAddr,
					"path", r.URL.Path,
					"method", r.Method,
				)
			}
			httputil.Error(w, http.StatusTooManyRequests, "rate limit exceeded. please try again later")
		}),
	)
}

// NoRateLimit returns a no-op middleware when rate limiting is disabled.
func NoRateLimit() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return next
	}
}

// CreateRateLimiters creates the link and API limiters from configuration.
func CreateRateLimiters(cfg config.RateLimitConfig, logger *slog.Logger) map[string]func(http.Handler) http.Handler {
	if !cfg.Enabled {
		noOp := NoRateLimit()
		return map[string]func(http.Handler) http.Handler{
			LimiterLink: noOp,
			LimiterAPI:  noOp,
		}
	}

	return map[string]func(http.Handler) http.Handler{
		LimiterLink: RateLimit(RateLimitConfig{
			Requests: cfg.LinkRequestsPerMinute,
			Window:   window(cfg.LinkWindowMinutes),
			Logger:   logger,
		}),
		LimiterAPI: RateLimit(RateLimitConfig{
			Requests: cfg.APIRequestsPerMinute,
			Window:   window(cfg.APIWindowMinutes),
			Logger:   logger,
		}),
	}
}

func window(minutes int) time.Duration {
	if minutes <= 0 {
		minutes = 1
	}
	return time.Duration(minutes) * time.Minute
}
