package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"

	"github.com/ayush/potty-buddy/backend/internal/logging"
)

var ok = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusTeapot)
})

func TestRequireAdminToken(t *testing.T) {
	h := RequireAdminToken("s3cret")(ok)

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"wrong", "Bearer nope", http.StatusUnauthorized},
		{"no scheme", "s3cret", http.StatusUnauthorized},
		{"valid", "Bearer s3cret", http.StatusTeapot},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodDelete, "/users/alice", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tc.status, rec.Code)
		})
	}
}

func TestRequireAdminToken_EmptyTokenIsOpen(t *testing.T) {
	rec := httptest.NewRecorder()
	RequireAdminToken("")(ok).ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
}

func TestRecoverer(t *testing.T) {
	var logs bytes.Buffer
	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(&logs, nil)))

	boom := http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("boom") })
	rec := httptest.NewRecorder()
	Recoverer(logger)(boom).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Internal server error"}`, rec.Body.String())
	assert.Contains(t, logs.String(), "boom")
}

func TestRequestLogger(t *testing.T) {
	var logs bytes.Buffer
	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(&logs, nil)))

	h := chimw.RequestID(RequestLogger(logger)(ok))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
	out := logs.String()
	assert.Contains(t, out, "status=418")
	assert.Contains(t, out, "path=/health")
	assert.Contains(t, out, "request_id=")
}
