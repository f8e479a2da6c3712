package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayush/potty-buddy/backend/internal/apperr"
	"github.com/ayush/potty-buddy/backend/internal/logging"
)

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body.Error
}

func TestWriteError_StatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		msg    string
	}{
		{"validation", apperr.Validation("Username is required"), http.StatusBadRequest, "Username is required"},
		{"not found", apperr.NotFound("User not found"), http.StatusNotFound, "User not found"},
		{"bare not found", fmt.Errorf("%w: fk", apperr.ErrNotFound), http.StatusNotFound, "Not found"},
		{"unauthorized", apperr.Unauthorized("Invalid username or password"), http.StatusUnauthorized, "Invalid username or password"},
		{"conflict", apperr.Conflict("Username already exists"), http.StatusConflict, "Username already exists"},
		{"throttled", apperr.TooManyAttempts("slow down"), http.StatusTooManyRequests, "slow down"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/", nil)

			WriteError(rec, req, logging.Discard(), tc.err)

			assert.Equal(t, tc.status, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			assert.Equal(t, tc.msg, decodeError(t, rec))
		})
	}
}

func TestWriteError_InternalIsLoggedNotLeaked(t *testing.T) {
	var logs bytes.Buffer
	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(&logs, nil)))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/events", nil)

	WriteError(rec, req, logger, errors.New("db error: relation \"events\" does not exist"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Internal server error", decodeError(t, rec))
	assert.Contains(t, logs.String(), "relation")
	assert.Contains(t, logs.String(), "path=/events")
}

func TestDecodeJSON(t *testing.T) {
	var v struct {
		Name string `json:"name"`
	}

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"alice"}`))
	require.NoError(t, DecodeJSON(httptest.NewRecorder(), req, &v))
	assert.Equal(t, "alice", v.Name)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":`))
	err := DecodeJSON(httptest.NewRecorder(), req, &v)
	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.Equal(t, "Invalid request body", err.Error())
}

func TestURLParam_DecodesEscapedSegments(t *testing.T) {
	var got string
	r := chi.NewRouter()
	r.Get("/users/{username}", func(w http.ResponseWriter, r *http.Request) {
		got = URLParam(r, "username")
	})

	for path, want := range map[string]string{
		"/users/alice":         "alice",
		"/users/alice%20smith": "alice smith",
		"/users/a%2Fb":         "a/b",
	} {
		req := httptest.NewRequest(http.MethodGet, path, nil).WithContext(context.Background())
		r.ServeHTTP(httptest.NewRecorder(), req)
		assert.Equal(t, want, got, path)
	}
}
