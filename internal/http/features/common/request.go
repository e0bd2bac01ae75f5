package common

import (
	"encoding/json"
	"mime"
	"net/http"

	"github.com/tendant/simple-rental/internal/http/middleware"
	"github.com/tendant/simple-rental/internal/httputil"
	"github.com/tendant/simple-rental/pkg/store"
)

// DecodeJSON decodes a JSON request body into v. It writes the error response
// itself and reports whether the handler may continue.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "application/json" {
		httputil.Error(w, http.StatusBadRequest, "expecting JSON")
		return false
	}

	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if httputil.IsMaxBytesError(err) {
			httputil.Error(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		httputil.Error(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// Store returns the tenant store opened by middleware.TenantStore, writing a
// 401 when the request carries none.
func Store(w http.ResponseWriter, r *http.Request) (*store.Store, bool) {
	st, ok := middleware.GetStore(r.Context())
	if !ok {
		httputil.Error(w, http.StatusUnauthorized, "unauthorized")
		return nil, false
	}
	return st, true
}
