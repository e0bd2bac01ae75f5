package logs

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/csv"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-rental/internal/http/middleware"
	"github.com/tendant/simple-rental/pkg/domain"
	"github.com/tendant/simple-rental/pkg/rental"
	"github.com/tendant/simple-rental/pkg/store"
)

func newTestHandler(t *testing.T, rentals ...string) (*Handler, *store.Store) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	resolver := store.NewResolver(t.TempDir(), logger)
	t.Cleanup(func() { resolver.Close() })

	st, err := resolver.Open(context.Background(), "acme")
	require.NoError(t, err)
	t.Cleanup(func() { st.Release() })

	service := rental.NewService(logger, nil)
	require.NoError(t, service.AddRentals(context.Background(), st, rentals))
	return NewHandler(logger, service), st
}

func newRequest(st *store.Store, method, target, body string) *http.Request {
	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	return req.WithContext(context.WithValue(req.Context(), middleware.StoreKey, st))
}

func writeBody(rental, holder string) string {
	b, _ := json.Marshal(map[string]string{
		"rental":  rental,
		"student": base64.StdEncoding.EncodeToString([]byte(holder)),
		"date":    "2024-09-01",
		"time":    "08:15",
	})
	return string(b)
}

func TestWrite_MissingFields(t *testing.T) {
	h, st := newTestHandler(t, "L1")

	tests := []struct {
		name          string
		body          string
		expectedError string
	}{
		{name: "empty", body: `{}`, expectedError: "Missing fields: rental, student, date, time"},
		{name: "date and time", body: `{"rental": "L1", "student": "QQ=="}`, expectedError: "Missing fields: date, time"},
		{name: "student only", body: `{"rental": "L1", "date": "d", "time": "t"}`, expectedError: "Missing fields: student"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.Write(rec, newRequest(st, http.MethodPost, "/api/write", tt.body))

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			var response map[string]string
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
			assert.Equal(t, tt.expectedError, response["error"])
		})
	}
}

func TestWrite_TogglesAndLogs(t *testing.T) {
	h, st := newTestHandler(t, "L1")

	rec := httptest.NewRecorder()
	h.Write(rec, newRequest(st, http.MethodPost, "/api/write", writeBody("L1", "Ana Lopez")))
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp WriteResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.NotNil(t, resp.Entry)
	assert.Equal(t, int64(1), resp.Entry.ID)
	assert.Equal(t, domain.StatusOut, resp.Entry.Action)
	assert.Equal(t, "Ana Lopez", resp.Entry.Holder)

	rec = httptest.NewRecorder()
	h.Write(rec, newRequest(st, http.MethodPost, "/api/write", writeBody("L1", "Ana Lopez")))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = httptest.NewRecorder()
	h.List(rec, newRequest(st, http.MethodGet, "/api/logs", ""))
	require.Equal(t, http.StatusOK, rec.Code)

	var logs LogsResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&logs))
	require.Len(t, logs.Logs, 2)
	assert.Equal(t, domain.StatusOut, logs.Logs[0].Action)
	assert.Equal(t, domain.StatusIn, logs.Logs[1].Action)
	assert.Equal(t, "2024-09-01", logs.Logs[1].Date)
}

func TestWrite_Errors(t *testing.T) {
	h, st := newTestHandler(t, "L1")

	tests := []struct {
		name           string
		body           string
		expectedStatus int
		expectedError  string
	}{
		{
			name:           "unknown rental",
			body:           writeBody("nope", "Ana"),
			expectedStatus: http.StatusNotFound,
			expectedError:  "rental not found",
		},
		{
			name:           "bad encoding",
			body:           `{"rental": "L1", "student": "%%%", "date": "d", "time": "t"}`,
			expectedStatus: http.StatusBadRequest,
			expectedError:  "invalid student encoding",
		},
		{
			name:           "empty student on checkout",
			body:           `{"rental": "L1", "student": "", "date": "d", "time": "t"}`,
			expectedStatus: http.StatusBadRequest,
			expectedError:  "missing student",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.Write(rec, newRequest(st, http.MethodPost, "/api/write", tt.body))

			assert.Equal(t, tt.expectedStatus, rec.Code)
			var response map[string]string
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
			assert.Equal(t, tt.expectedError, response["error"])
		})
	}

	rec := httptest.NewRecorder()
	h.List(rec, newRequest(st, http.MethodGet, "/api/logs", ""))
	assert.JSONEq(t, `{"logs": []}`, rec.Body.String())
}

func TestExport(t *testing.T) {
	h, st := newTestHandler(t, "L1")

	rec := httptest.NewRecorder()
	h.Write(rec, newRequest(st, http.MethodPost, "/api/write", writeBody("L1", "Ana, Jr.")))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = httptest.NewRecorder()
	h.Export(rec, newRequest(st, http.MethodGet, "/api/export", ""))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Equal(t, "attachment;filename=acme_logs.csv", rec.Header().Get("Content-Disposition"))

	records, err := csv.NewReader(rec.Body).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, []string{"id", "rental", "action", "student", "date", "time"}, records[0])
	assert.Equal(t, []string{"1", "L1", "OUT", "Ana, Jr.", "2024-09-01", "08:15"}, records[1])
}

func TestClear(t *testing.T) {
	h, st := newTestHandler(t, "L1")

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		h.Write(rec, newRequest(st, http.MethodPost, "/api/write", writeBody("L1", "Ana")))
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := httptest.NewRecorder()
	h.Clear(rec, newRequest(st, http.MethodPost, "/api/clear", ""))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.Write(rec, newRequest(st, http.MethodPost, "/api/write", writeBody("L1", "Ana")))
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp WriteResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, int64(1), resp.Entry.ID, "numbering restarts after clear")
	// Three toggles left L1 OUT; the fourth brings it back IN.
	assert.Equal(t, domain.StatusIn, resp.Entry.Action)
}

func TestList_WireFieldNames(t *testing.T) {
	h, st := newTestHandler(t, "A")

	rec := httptest.NewRecorder()
	h.Write(rec, newRequest(st, http.MethodPost, "/api/write", writeBody("A", "bob")))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = httptest.NewRecorder()
	h.List(rec, newRequest(st, http.MethodGet, "/api/logs", ""))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"logs": [{"id": 1, "rental": "A", "action": "OUT", "student": "bob", "date": "2024-09-01", "time": "08:15"}]}`, rec.Body.String())
}
