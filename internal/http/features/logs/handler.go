package logs

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/tendant/simple-rental/internal/http/features/common"
	"github.com/tendant/simple-rental/internal/httputil"
	"github.com/tendant/simple-rental/pkg/domain"
	"github.com/tendant/simple-rental/pkg/rental"
)

// Handler handles event recording and log endpoints.
type Handler struct {
	logger  *slog.Logger
	service *rental.Service
}

// NewHandler creates a new logs handler.
func NewHandler(logger *slog.Logger, service *rental.Service) *Handler {
	return &Handler{
		logger:  logger,
		service: service,
	}
}

// WriteRequest represents a check-in/check-out event. Student is the holder,
// base64 encoded. Date and time are stored as sent.
type WriteRequest struct {
	Rental  *string `json:"rental"`
	Student *string `json:"student"`
	Date    *string `json:"date"`
	Time    *string `json:"time"`
}

func (req *WriteRequest) missing() []string {
	var fields []string
	if req.Rental == nil {
		fields = append(fields, "rental")
	}
	if req.Student == nil {
		fields = append(fields, "student")
	}
	if req.Date == nil {
		fields = append(fields, "date")
	}
	if req.Time == nil {
		fields = append(fields, "time")
	}
	return fields
}

// WriteResponse confirms a recorded event.
type WriteResponse struct {
	Message string           `json:"message"`
	Entry   *domain.LogEntry `json:"entry"`
}

// LogsResponse carries the event history.
type LogsResponse struct {
	Logs []domain.LogEntry `json:"logs"`
}

// Write toggles a rental and appends the log entry.
// POST /api/write
func (h *Handler) Write(w http.ResponseWriter, r *http.Request) {
	var req WriteRequest
	if !common.DecodeJSON(w, r, &req) {
		return
	}
	if missing := req.missing(); len(missing) > 0 {
		httputil.Error(w, http.StatusBadRequest, "Missing fields: "+strings.Join(missing, ", "))
		return
	}

	st, ok := common.Store(w, r)
	if !ok {
		return
	}

	entry, err := h.service.RecordEvent(r.Context(), st, domain.Event{
		Rental:    *req.Rental,
		HolderB64: *req.Student,
		Date:      *req.Date,
		Time:      *req.Time,
	})
	if err != nil {
		common.WriteError(w, err, "failed to record event")
		return
	}

	httputil.JSON(w, http.StatusCreated, WriteResponse{
		Message: "log entry created successfully",
		Entry:   entry,
	})
}

// List returns the event history in insertion order.
// GET /api/logs
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	st, ok := common.Store(w, r)
	if !ok {
		return
	}

	entries, err := h.service.ListLogs(r.Context(), st)
	if err != nil {
		common.WriteError(w, err, "failed to fetch logs")
		return
	}

	httputil.JSON(w, http.StatusOK, LogsResponse{Logs: entries})
}

// Export returns the event history as a CSV attachment.
// GET /api/export
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	st, ok := common.Store(w, r)
	if !ok {
		return
	}

	// Buffer so a storage failure can still produce a JSON error.
	var buf bytes.Buffer
	if err := h.service.ExportLogs(r.Context(), st, &buf); err != nil {
		common.WriteError(w, err, "failed to export logs")
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment;filename=%s_logs.csv", st.Tenant()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// Clear deletes the event history and restarts numbering.
// POST /api/clear
func (h *Handler) Clear(w http.ResponseWriter, r *http.Request) {
	st, ok := common.Store(w, r)
	if !ok {
		return
	}

	if err := h.service.ClearLogs(r.Context(), st); err != nil {
		common.WriteError(w, err, "failed to clear logs")
		return
	}

	httputil.Message(w, http.StatusOK, "logs cleared")
}
