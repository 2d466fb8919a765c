package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/sgprime/sgprime/internal/server/middleware"
	"github.com/sgprime/sgprime/internal/service"
	"github.com/sgprime/sgprime/internal/store"
)

// AuthHandler serves the admin session endpoints: login, token verification,
// and password changes.
type AuthHandler struct {
	auth   *service.AuthService
	logger *slog.Logger
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(auth *service.AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, logger: logger}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token    string `json:"token"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// Login handles POST /api/admin/login. All credential failures produce the
// same response so the endpoint cannot be used to enumerate usernames.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Username and password are required")
		return
	}

	token, principal, err := h.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		h.logger.Error("login failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeData(w, http.StatusOK, loginResponse{
		Token:    token,
		Username: principal.Username,
		Role:     principal.Role,
	})
}

// Verify handles GET /api/admin/verify. Reaching this handler means the
// authentication middleware already accepted the token, so it just echoes
// the principal back.
func (h *AuthHandler) Verify(w http.ResponseWriter, r *http.Request) {
	principal := middleware.GetPrincipal(r.Context())
	if principal == nil {
		writeError(w, http.StatusUnauthorized, "No token provided")
		return
	}
	writeData(w, http.StatusOK, map[string]interface{}{
		"id":       principal.ID,
		"username": principal.Username,
		"role":     principal.Role,
	})
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// ChangePassword handles PATCH /api/admin/password.
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	principal := middleware.GetPrincipal(r.Context())
	if principal == nil {
		writeError(w, http.StatusUnauthorized, "No token provided")
		return
	}

	var req changePasswordRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.CurrentPassword == "" || req.NewPassword == "" {
		writeError(w, http.StatusBadRequest, "Current and new password are required")
		return
	}

	err := h.auth.ChangePassword(r.Context(), principal.ID, req.CurrentPassword, req.NewPassword)
	switch {
	case err == nil:
		writeMessage(w, http.StatusOK, "Password updated successfully")
	case errors.Is(err, service.ErrPasswordTooShort):
		writeError(w, http.StatusBadRequest,
			fmt.Sprintf("New password must be at least %d characters", h.auth.MinPasswordLength()))
	case errors.Is(err, service.ErrPasswordMismatch):
		writeError(w, http.StatusUnauthorized, "Current password is incorrect")
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "Admin account not found")
	default:
		h.logger.Error("password change failed", "admin_id", principal.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}
