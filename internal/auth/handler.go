package auth

import (
	"net/http"

	"github.com/ayush/potty-buddy/backend/internal/httpx"
	"github.com/ayush/potty-buddy/backend/internal/logging"
	"github.com/ayush/potty-buddy/backend/internal/models"
)

// Handler holds the /users HTTP handlers.
type Handler struct {
	svc    *Service
	logger logging.Logger
}

func NewHandler(svc *Service, logger logging.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// Lookup reports whether a username is taken.
func (h *Handler) Lookup(w http.ResponseWriter, r *http.Request) {
	user, exists, err := h.svc.Lookup(r.Context(), httpx.URLParam(r, "username"))
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}

	resp := models.LookupResponse{Exists: exists}
	if exists {
		resp.User = user.Public()
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

// LoginOrRegister signs a user in, creating the account on first use.
func (h *Handler) LoginOrRegister(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}

	res, err := h.svc.LoginOrRegister(r.Context(), req.Username, req.Password)
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}

	status, msg := http.StatusOK, "Login successful"
	switch res.Outcome {
	case OutcomeCreated:
		status, msg = http.StatusCreated, "User created successfully"
	case OutcomeBackfilled:
		msg = "Account updated with password successfully"
	}
	httpx.WriteJSON(w, status, models.LoginResponse{
		Message:   msg,
		User:      res.User,
		IsNewUser: res.IsNewUser(),
	})
}

// Delete removes a user and all of their events.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	user, err := h.svc.Delete(r.Context(), httpx.URLParam(r, "username"))
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, models.DeleteUserResponse{
		Message: "User deleted successfully",
		User:    user.Public(),
	})
}
