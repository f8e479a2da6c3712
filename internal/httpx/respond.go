// Package httpx holds the JSON request/response helpers shared by handlers.
package httpx

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/ayush/potty-buddy/backend/internal/apperr"
	"github.com/ayush/potty-buddy/backend/internal/logging"
)

const maxBodyBytes = 1 << 20

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func WriteMessage(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, ErrorResponse{Error: msg})
}

// WriteError maps err onto a status code. Errors without a known kind are
// logged and reported as a bare 500 so storage details never reach clients.
func WriteError(w http.ResponseWriter, r *http.Request, logger logging.Logger, err error) {
	switch {
	case errors.Is(err, apperr.ErrValidation):
		WriteMessage(w, http.StatusBadRequest, apperr.Message(err, "Invalid request"))
	case errors.Is(err, apperr.ErrNotFound):
		WriteMessage(w, http.StatusNotFound, apperr.Message(err, "Not found"))
	case errors.Is(err, apperr.ErrUnauthorized):
		WriteMessage(w, http.StatusUnauthorized, apperr.Message(err, "Unauthorized"))
	case errors.Is(err, apperr.ErrConflict):
		WriteMessage(w, http.StatusConflict, apperr.Message(err, "Conflict"))
	case errors.Is(err, apperr.ErrTooManyAttempts):
		WriteMessage(w, http.StatusTooManyRequests, apperr.Message(err, "Too many requests"))
	default:
		logger.Error(r.Context(), "request failed",
			"error", err,
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", chimw.GetReqID(r.Context()),
		)
		WriteMessage(w, http.StatusInternalServerError, "Internal server error")
	}
}

// DecodeJSON reads a JSON body into v. Any decoding problem is a validation
// error.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return apperr.Validation("Invalid request body")
	}
	return nil
}

// URLParam returns the decoded value of a chi route parameter. chi matches on
// the raw path when the request has one, leaving escapes in the value.
func URLParam(r *http.Request, key string) string {
	v := chi.URLParam(r, key)
	if r.URL.RawPath == "" {
		return v
	}
	if unescaped, err := url.PathUnescape(v); err == nil {
		return unescaped
	}
	return v
}
