package rentals

import (
	"log/slog"
	"net/http"

	"github.com/tendant/simple-rental/internal/http/features/common"
	"github.com/tendant/simple-rental/internal/httputil"
	"github.com/tendant/simple-rental/pkg/domain"
	"github.com/tendant/simple-rental/pkg/rental"
)

// Handler handles rental registry endpoints.
type Handler struct {
	logger  *slog.Logger
	service *rental.Service
}

// NewHandler creates a new rentals handler.
func NewHandler(logger *slog.Logger, service *rental.Service) *Handler {
	return &Handler{
		logger:  logger,
		service: service,
	}
}

// AddRequest represents a batch of rentals to register.
type AddRequest struct {
	Rentals []string `json:"rentals"`
}

// RemoveRequest names the rental to delete.
type RemoveRequest struct {
	Rental *string `json:"rental"`
}

// StatusResponse lists every rental and its state.
type StatusResponse struct {
	Status []domain.Rental `json:"status"`
}

// Add registers rentals, all checked in.
// POST /api/rentals/add
func (h *Handler) Add(w http.ResponseWriter, r *http.Request) {
	var req AddRequest
	if !common.DecodeJSON(w, r, &req) {
		return
	}
	if req.Rentals == nil {
		httputil.Error(w, http.StatusBadRequest, "missing rentals parameter")
		return
	}

	st, ok := common.Store(w, r)
	if !ok {
		return
	}

	if err := h.service.AddRentals(r.Context(), st, req.Rentals); err != nil {
		common.WriteError(w, err, "failed to add rentals")
		return
	}

	httputil.Message(w, http.StatusCreated, "rental(s) created successfully")
}

// Remove deletes a rental. Its log history is kept.
// POST /api/rentals/remove
func (h *Handler) Remove(w http.ResponseWriter, r *http.Request) {
	var req RemoveRequest
	if !common.DecodeJSON(w, r, &req) {
		return
	}
	if req.Rental == nil {
		httputil.Error(w, http.StatusBadRequest, "missing rental parameter")
		return
	}

	st, ok := common.Store(w, r)
	if !ok {
		return
	}

	if err := h.service.RemoveRental(r.Context(), st, *req.Rental); err != nil {
		common.WriteError(w, err, "failed to remove rental")
		return
	}

	httputil.Message(w, http.StatusOK, "ok")
}

// Status lists every rental with its status and holder.
// GET /api/status
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	st, ok := common.Store(w, r)
	if !ok {
		return
	}

	rentals, err := h.service.ListStatus(r.Context(), st)
	if err != nil {
		common.WriteError(w, err, "failed to fetch status")
		return
	}

	httputil.JSON(w, http.StatusOK, StatusResponse{Status: rentals})
}
