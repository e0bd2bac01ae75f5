package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration.
type Config struct {
	// Server
	ServerAddr string
	ServerPort int

	// Tenant stores
	DataDir string

	// Key registry
	KeyRegistryDriver string
	KeyRegistryDSN    string

	// JWT
	JWTSecret string
	JWTIssuer string
	TokenTTL  time.Duration

	// Cookies
	CookieSecure bool

	RateLimit       RateLimitConfig
	SecurityHeaders SecurityHeadersConfig
	Validation      ValidationConfig
}

// RateLimitConfig holds per-IP rate limits.
type RateLimitConfig struct {
	Enabled bool

	// Access key exchange
	LinkRequestsPerMinute int
	LinkWindowMinutes     int

	// Authenticated rental API
	APIRequestsPerMinute int
	APIWindowMinutes     int
}

// SecurityHeadersConfig holds response security header values.
type SecurityHeadersConfig struct {
	Enabled            bool
	CSP                string
	HSTSMaxAge         int
	FrameOptions       string
	ContentTypeOptions string
	XSSProtection      string
	ReferrerPolicy     string
	PermissionsPolicy  string
}

// ValidationConfig holds request validation limits.
type ValidationConfig struct {
	MaxRequestBodySize int64
}

// RegistryConfig locates the shared access key registry.
type RegistryConfig struct {
	Driver string
	DSN    string
}

// LoadRegistry reads the key registry settings alone. Provisioning commands
// use it since they need no signing secret.
func LoadRegistry() (RegistryConfig, error) {
	dataDir := getEnv("DATA_DIR", "db")
	cfg := RegistryConfig{
		// The registry lives next to the tenant stores unless pointed elsewhere
		Driver: getEnv("KEY_REGISTRY_DRIVER", "sqlite3"),
		DSN:    getEnv("KEY_REGISTRY_DSN", filepath.Join(dataDir, "valid_keys.db")),
	}
	switch cfg.Driver {
	case "sqlite3", "postgres":
	default:
		return RegistryConfig{}, fmt.Errorf("KEY_REGISTRY_DRIVER must be sqlite3 or postgres, got %q", cfg.Driver)
	}
	return cfg, nil
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	registry, err := LoadRegistry()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		// Server defaults
		ServerAddr: getEnv("SERVER_ADDR", "0.0.0.0"),
		ServerPort: getEnvInt("SERVER_PORT", 9998),

		DataDir: getEnv("DATA_DIR", "db"),

		KeyRegistryDriver: registry.Driver,
		KeyRegistryDSN:    registry.DSN,

		// JWT defaults
		JWTSecret: getEnv("JWT_SECRET", ""),
		JWTIssuer: getEnv("JWT_ISSUER", "simple-rental"),
		TokenTTL:  getEnvDuration("TOKEN_TTL", 365*24*time.Hour),

		CookieSecure: getEnvBool("COOKIE_SECURE", false),

		RateLimit: RateLimitConfig{
			Enabled:               getEnvBool("RATE_LIMIT_ENABLED", true),
			LinkRequestsPerMinute: getEnvInt("LINK_REQUESTS_PER_MINUTE", 10),
			LinkWindowMinutes:     getEnvInt("LINK_WINDOW_MINUTES", 1),
			APIRequestsPerMinute:  getEnvInt("API_REQUESTS_PER_MINUTE", 300),
			APIWindowMinutes:      getEnvInt("API_WINDOW_MINUTES", 1),
		},

		SecurityHeaders: SecurityHeadersConfig{
			Enabled:            getEnvBool("SECURITY_HEADERS_ENABLED", true),
			CSP:                getEnv("SECURITY_CSP", "default-src 'none'; frame-ancestors 'none'"),
			HSTSMaxAge:         getEnvInt("SECURITY_HSTS_MAX_AGE", 0),
			FrameOptions:       getEnv("SECURITY_FRAME_OPTIONS", "DENY"),
			ContentTypeOptions: getEnv("SECURITY_CONTENT_TYPE_OPTIONS", "nosniff"),
			XSSProtection:      getEnv("SECURITY_XSS_PROTECTION", "0"),
			ReferrerPolicy:     getEnv("SECURITY_REFERRER_POLICY", "no-referrer"),
			PermissionsPolicy:  getEnv("SECURITY_PERMISSIONS_POLICY", ""),
		},

		Validation: ValidationConfig{
			MaxRequestBodySize: getEnvInt64("MAX_REQUEST_BODY_SIZE", 1<<20),
		},
	}

	// Validate required fields
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	return cfg, nil
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.ServerAddr, c.ServerPort)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.ParseInt(value, 10, 64); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
