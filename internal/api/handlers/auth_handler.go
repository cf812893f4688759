package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"sponsorops/internal/pkg/errors"
	"sponsorops/internal/platform/auth"
	"sponsorops/internal/platform/models"
	"sponsorops/internal/platform/repositories"
)

type AuthHandler struct {
	users    *repositories.UserRepository
	tokenSvc *auth.TokenService
}

func NewAuthHandler(users *repositories.UserRepository, tokenSvc *auth.TokenService) *AuthHandler {
	return &AuthHandler{users: users, tokenSvc: tokenSvc}
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	User        *models.User `json:"user"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	user, err := h.users.GetByEmail(strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}
	if user == nil || !auth.VerifyPassword(req.Password, user.PasswordHash) {
		errors.Write(w, errors.ErrInvalidCredentials)
		return
	}

	token, err := h.tokenSvc.IssueToken(user.ID, user.Email)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to issue token", nil)
		return
	}

	writeJSON(w, http.StatusOK, LoginResponse{
		AccessToken: token,
		TokenType:   "bearer",
		User:        user,
	})
}
