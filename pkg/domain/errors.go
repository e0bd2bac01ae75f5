package domain

import (
	"errors"
	"fmt"
)

// Identity errors
var (
	ErrInvalidKey        = errors.New("invalid key")
	ErrInvalidTenantName = errors.New("invalid tenant name")
	ErrInvalidToken      = errors.New("invalid token")
)

// Rental errors
var (
	ErrRentalNotFound        = errors.New("rental not found")
	ErrDuplicateRental       = errors.New("duplicate rental")
	ErrInvalidHolderEncoding = errors.New("invalid holder encoding")
	ErrMissingHolder         = errors.New("missing holder")
)

// Storage errors
var (
	ErrStorageFailure = errors.New("storage failure")
	// ErrCorruptStatus is returned when a stored status is neither IN nor OUT.
	ErrCorruptStatus = fmt.Errorf("%w: corrupt rental status", ErrStorageFailure)
)
