package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/tendant/simple-rental/pkg/domain"
)

const (
	// DefaultTokenTTL matches the one year tokens handed to linked devices.
	DefaultTokenTTL = 365 * 24 * time.Hour
	DefaultIssuer   = "simple-rental"
)

// TokenConfig holds bearer token configuration.
type TokenConfig struct {
	Secret []byte
	Issuer string
	TTL    time.Duration
}

// TokenService issues and validates bearer tokens bound to a tenant.
type TokenService struct {
	config TokenConfig
	now    func() time.Time
}

// NewTokenService creates a new token service.
func NewTokenService(config TokenConfig) *TokenService {
	if config.TTL == 0 {
		config.TTL = DefaultTokenTTL
	}
	if config.Issuer == "" {
		config.Issuer = DefaultIssuer
	}
	return &TokenService{config: config, now: time.Now}
}

// TTL returns the token lifetime.
func (s *TokenService) TTL() time.Duration {
	return s.config.TTL
}

// TenantClaims are the claims carried by a bearer token. The subject is the
// tenant id.
type TenantClaims struct {
	jwt.RegisteredClaims
}

// Tenant returns the tenant named by the token subject.
func (c *TenantClaims) Tenant() domain.TenantID {
	return domain.TenantID(c.Subject)
}

// Issue creates a signed token for tenant.
func (s *TokenService) Issue(tenant domain.TenantID) (string, time.Time, error) {
	if !tenant.Valid() {
		return "", time.Time{}, domain.ErrInvalidTenantName
	}

	now := s.now()
	expiresAt := now.Add(s.config.TTL)
	claims := TenantClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   tenant.String(),
			Issuer:    s.config.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.New().String(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.config.Secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Validate checks a token and returns its claims. The subject is re-checked
// against the tenant naming rules.
func (s *TokenService) Validate(tokenString string) (*TenantClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &TenantClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, domain.ErrInvalidToken
		}
		return s.config.Secret, nil
	},
		jwt.WithIssuer(s.config.Issuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, domain.ErrInvalidToken
	}

	claims, ok := token.Claims.(*TenantClaims)
	if !ok || !token.Valid {
		return nil, domain.ErrInvalidToken
	}
	if !claims.Tenant().Valid() {
		return nil, domain.ErrInvalidTenantName
	}
	return claims, nil
}
