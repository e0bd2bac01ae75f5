package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/tendant/simple-rental/internal/metrics"
)

func decodeLogLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var entries []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatalf("log line is not JSON: %v", err)
		}
		entries = append(entries, entry)
	}
	return entries
}

func TestLogging_AssignsRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	var ctxID string
	handler := Logging(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctxID, _ = GetRequestID(r.Context())
		w.WriteHeader(http.StatusCreated)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/write", nil))

	id := rec.Header().Get(RequestIDHeader)
	if id == "" {
		t.Fatal("response has no request id")
	}
	if ctxID != id {
		t.Errorf("context request id = %q, want %q", ctxID, id)
	}

	entries := decodeLogLines(t, &buf)
	if len(entries) != 1 {
		t.Fatalf("got %d log lines, want 1", len(entries))
	}
	entry := entries[0]
	if entry["status"] != float64(http.StatusCreated) {
		t.Errorf("logged status = %v, want %d", entry["status"], http.StatusCreated)
	}
	if entry["path"] != "/api/write" {
		t.Errorf("logged path = %v", entry["path"])
	}
	if entry["request_id"] != id {
		t.Errorf("logged request id = %v, want %q", entry["request_id"], id)
	}
}

func TestLogging_KeepsIncomingRequestID(t *testing.T) {
	handler := Logging(discardLogger())(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, "edge-42")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if got := rec.Header().Get(RequestIDHeader); got != "edge-42" {
		t.Errorf("request id = %q, want %q", got, "edge-42")
	}
}

func TestLogging_EmptyResponseLogsOK(t *testing.T) {
	var buf bytes.Buffer
	handler := Logging(slog.New(slog.NewJSONHandler(&buf, nil)))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	entries := decodeLogLines(t, &buf)
	if len(entries) != 1 || entries[0]["status"] != float64(http.StatusOK) {
		t.Errorf("log entries = %v, want one with status 200", entries)
	}
}

func TestRecover(t *testing.T) {
	var buf bytes.Buffer
	handler := Recover(slog.New(slog.NewJSONHandler(&buf, nil)))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/status", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("Status code = %d, want %d", rec.Code, http.StatusInternalServerError)
	}
	entries := decodeLogLines(t, &buf)
	if len(entries) != 1 || entries[0]["panic"] != "boom" {
		t.Errorf("log entries = %v, want one panic entry", entries)
	}
}

func TestLoggingRecoverChain(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	m := metrics.NewMetrics(prometheus.NewRegistry())

	handler := Logging(logger)(Recover(logger)(Metrics(m)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/status", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("Status code = %d, want %d", rec.Code, http.StatusInternalServerError)
	}

	entries := decodeLogLines(t, &buf)
	if len(entries) != 2 {
		t.Fatalf("got %d log lines, want panic and request", len(entries))
	}
	if entries[0]["msg"] != "panic recovered" || entries[0]["request_id"] == "" {
		t.Errorf("panic entry = %v", entries[0])
	}
	if entries[1]["msg"] != "request" || entries[1]["status"] != float64(http.StatusInternalServerError) {
		t.Errorf("request entry = %v", entries[1])
	}
	// A panicking handler never reaches the metrics bookkeeping.
	if got := testutil.CollectAndCount(m.HTTPRequestsTotal); got != 0 {
		t.Errorf("recorded %d request series, want 0", got)
	}
}
