package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/parley/parley/internal/auth"
	"github.com/parley/parley/internal/handler/dto"
	"github.com/parley/parley/internal/service"
)

// UserHandler handles HTTP requests for profile management.
type UserHandler struct {
	svc    *service.AuthService
	logger *slog.Logger
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(svc *service.AuthService, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		svc:    svc,
		logger: logger,
	}
}

// Profile handles GET /users/profile.
func (h *UserHandler) Profile(w http.ResponseWriter, r *http.Request) {
	identity := auth.MustIdentityFromContext(r.Context())

	user, err := h.svc.Profile(r.Context(), identity.UserID)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToUserResponse(user))
}

// UpdateProfile handles PUT /users/profile.
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	identity := auth.MustIdentityFromContext(r.Context())

	var req dto.UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	user, err := h.svc.UpdateProfile(r.Context(), service.UpdateProfileInput{
		UserID:   identity.UserID,
		FullName: req.FullName,
		Email:    req.Email,
	})
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("profile_updated", "user_id", user.ID)

	writeJSON(w, http.StatusOK, dto.ToUserResponse(user))
}

// ChangePassword handles PUT /users/change-password.
func (h *UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	identity := auth.MustIdentityFromContext(r.Context())

	var req dto.ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	err := h.svc.ChangePassword(r.Context(), identity.UserID,
		req.CurrentPassword, req.NewPassword, req.NewPasswordConfirm)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("password_changed", "user_id", identity.UserID)

	w.WriteHeader(http.StatusNoContent)
}

// DeleteAccount handles DELETE /users/account.
func (h *UserHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	identity := auth.MustIdentityFromContext(r.Context())

	var req dto.DeleteAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	if err := h.svc.DeleteAccount(r.Context(), identity.UserID, req.Password); err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("account_deleted", "user_id", identity.UserID)

	w.WriteHeader(http.StatusNoContent)
}

// handleServiceError maps service errors to HTTP responses.
func (h *UserHandler) handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrUserNotFound):
		writeError(w, http.StatusNotFound, "USER_NOT_FOUND", "User not found")
	case errors.Is(err, service.ErrInvalidFullName):
		writeError(w, http.StatusBadRequest, "INVALID_FULL_NAME", "Full name is required")
	case errors.Is(err, service.ErrInvalidEmail):
		writeError(w, http.StatusBadRequest, "INVALID_EMAIL", "Invalid email address")
	case errors.Is(err, service.ErrEmailExists):
		writeError(w, http.StatusConflict, "EMAIL_TAKEN", "Email is already registered")
	case errors.Is(err, service.ErrWeakPassword):
		writeError(w, http.StatusBadRequest, "WEAK_PASSWORD", "Password must be at least 8 characters")
	case errors.Is(err, service.ErrPasswordMismatch):
		writeError(w, http.StatusBadRequest, "PASSWORD_MISMATCH", "Password confirmation does not match")
	case errors.Is(err, service.ErrWrongPassword):
		writeError(w, http.StatusForbidden, "WRONG_PASSWORD", "Current password is incorrect")
	default:
		h.logger.Error("internal_error", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
	}
}
