// Package common holds request decoding and error mapping shared by the
// feature handlers.
package common

import (
	"errors"
	"net/http"

	"github.com/tendant/simple-rental/internal/httputil"
	"github.com/tendant/simple-rental/pkg/domain"
)

// WriteError maps a domain error to its HTTP response. Unclassified errors
// become a 500 carrying fallback, never the underlying cause.
func WriteError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, domain.ErrRentalNotFound):
		httputil.Error(w, http.StatusNotFound, "rental not found")
	case errors.Is(err, domain.ErrDuplicateRental):
		httputil.Error(w, http.StatusConflict, "duplicate rental")
	case errors.Is(err, domain.ErrInvalidHolderEncoding):
		httputil.Error(w, http.StatusBadRequest, "invalid student encoding")
	case errors.Is(err, domain.ErrMissingHolder):
		httputil.Error(w, http.StatusBadRequest, "missing student")
	case errors.Is(err, domain.ErrInvalidTenantName):
		httputil.Error(w, http.StatusBadRequest, "invalid database name")
	case errors.Is(err, domain.ErrInvalidKey):
		httputil.Error(w, http.StatusUnauthorized, "invalid key")
	default:
		httputil.Error(w, http.StatusInternalServerError, fallback)
	}
}
