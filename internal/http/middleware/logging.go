package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-ID"

// Logging creates middleware that assigns a request id and logs every request
// through chi's RequestLogger with an slog formatter.
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	requestLogger := chimiddleware.RequestLogger(&slogFormatter{logger: logger})
	return func(next http.Handler) http.Handler {
		return chimiddleware.RequestID(echoRequestID(requestLogger(next)))
	}
}

// Recover creates middleware that turns handler panics into 500 responses.
// Panics are reported through the request's log entry, so when Logging runs
// first they land on the same line as the request.
func Recover(logger *slog.Logger) func(http.Handler) http.Handler {
	formatter := &slogFormatter{logger: logger}
	return func(next http.Handler) http.Handler {
		recoverer := chimiddleware.Recoverer(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if chimiddleware.GetLogEntry(r) == nil {
				r = chimiddleware.WithLogEntry(r, formatter.NewLogEntry(r))
			}
			recoverer.ServeHTTP(w, r)
		})
	}
}

// GetRequestID extracts the request id from the request context.
func GetRequestID(ctx context.Context) (string, bool) {
	id := chimiddleware.GetReqID(ctx)
	return id, id != ""
}

func echoRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id, ok := GetRequestID(r.Context()); ok {
			w.Header().Set(RequestIDHeader, id)
		}
		next.ServeHTTP(w, r)
	})
}

type slogFormatter struct {
	logger *slog.Logger
}

func (f *slogFormatter) NewLogEntry(r *http.Request) chimiddleware.LogEntry {
	requestID, _ := GetRequestID(r.Context())
	return &slogEntry{
		logger: f.logger.With(
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
		),
	}
}

type slogEntry struct {
	logger *slog.Logger
}

func (e *slogEntry) Write(status, bytes int, header http.Header, elapsed time.Duration, extra interface{}) {
	if status == 0 {
		status = http.StatusOK
	}
	attrs := []any{
		"status", status,
		"bytes", bytes,
		"duration_ms", elapsed.Milliseconds(),
	}
	if status >= http.StatusInternalServerError {
		e.logger.Error("request", attrs...)
		return
	}
	e.logger.Info("request", attrs...)
}

func (e *slogEntry) Panic(v interface{}, stack []byte) {
	e.logger.Error("panic recovered", "panic", v, "stack", string(stack))
}

// wrapWriter reuses the chi wrapper installed by Logging when present.
func wrapWriter(w http.ResponseWriter, r *http.Request) chimiddleware.WrapResponseWriter {
	if ww, ok := w.(chimiddleware.WrapResponseWriter); ok {
		return ww
	}
	return chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
}

// responseStatus treats a handler that wrote nothing as 200.
func responseStatus(ww chimiddleware.WrapResponseWriter) int {
	if status := ww.Status(); status != 0 {
		return status
	}
	return http.StatusOK
}

// routePattern returns the chi route pattern matched for r, or "unmatched".
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unmatched"
}
