package events

import (
	"bytes"
	"net/http"
	"strconv"

	"github.com/ayush/potty-buddy/backend/internal/apperr"
	"github.com/ayush/potty-buddy/backend/internal/httpx"
	"github.com/ayush/potty-buddy/backend/internal/logging"
	"github.com/ayush/potty-buddy/backend/internal/models"
)

// userID accepts a JSON number or a numeric string. Anything else leaves it
// zero, which the handler reports as missing.
type userID int64

func (u *userID) UnmarshalJSON(b []byte) error {
	b = bytes.Trim(b, `"`)
	n, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		*u = 0
		return nil
	}
	*u = userID(n)
	return nil
}

// LogEventRequest is the JSON body for POST /events.
type LogEventRequest struct {
	UserID    userID `json:"userId"`
	EventType string `json:"eventType"`
}

// Handler holds the /events HTTP handlers.
type Handler struct {
	svc    *Service
	logger logging.Logger
}

func NewHandler(svc *Service, logger logging.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// Log appends an event.
func (h *Handler) Log(w http.ResponseWriter, r *http.Request) {
	var req LogEventRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	if req.UserID == 0 || req.EventType == "" {
		httpx.WriteError(w, r, h.logger, apperr.Validation("User ID and event type are required"))
		return
	}
	eventType, err := models.ParseEventType(req.EventType)
	if err != nil {
		httpx.WriteError(w, r, h.logger, apperr.Validation(invalidTypeMsg))
		return
	}

	ev, err := h.svc.Append(r.Context(), int64(req.UserID), eventType)
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, models.LogEventResponse{
		Message: "Event logged successfully",
		Event:   ev,
	})
}

// Summary returns the 14-day rollup for a user.
func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	raw := httpx.URLParam(r, "userId")
	if raw == "" {
		httpx.WriteError(w, r, h.logger, apperr.Validation("User ID is required"))
		return
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		httpx.WriteError(w, r, h.logger, apperr.Validation("Invalid user ID"))
		return
	}

	sum, err := h.svc.Summarize(r.Context(), id)
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, sum)
}
