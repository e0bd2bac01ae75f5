package domain

import (
	"fmt"
	"regexp"
)

var tenantPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// TenantID names an organization and its storage namespace.
type TenantID string

// ParseTenantID validates s as a tenant identifier.
func ParseTenantID(s string) (TenantID, error) {
	if !tenantPattern.MatchString(s) {
		return "", fmt.Errorf("%w: %q", ErrInvalidTenantName, s)
	}
	return TenantID(s), nil
}

// Valid reports whether the identifier matches the tenant naming pattern.
func (t TenantID) Valid() bool {
	return tenantPattern.MatchString(string(t))
}

func (t TenantID) String() string {
	return string(t)
}
