package middleware

import (
	"context"
	"net/http"
	"strings"

	apiContext "sponsorops/internal/api/context"
	"sponsorops/internal/pkg/errors"
	"sponsorops/internal/platform/auth"
	"sponsorops/internal/platform/repositories"
)

type AuthMiddleware struct {
	tokenSvc *auth.TokenService
	users    *repositories.UserRepository
}

func NewAuthMiddleware(tokenSvc *auth.TokenService, users *repositories.UserRepository) *AuthMiddleware {
	return &AuthMiddleware{tokenSvc: tokenSvc, users: users}
}

// Handle validates the bearer token and loads the authenticated user into
// the request context.
func (m *AuthMiddleware) Handle(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			errors.WriteError(w, http.StatusUnauthorized, errors.ErrCodeUnauthorized, "Missing authorization header", nil)
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			errors.WriteError(w, http.StatusUnauthorized, errors.ErrCodeUnauthorized, "Invalid authorization header format", nil)
			return
		}

		claims, err := m.tokenSvc.ValidateToken(parts[1])
		if err != nil {
			errors.Write(w, err)
			return
		}

		user, err := m.users.GetByID(claims.UserID)
		if err != nil {
			errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to load user", nil)
			return
		}
		if user == nil {
			errors.WriteError(w, http.StatusUnauthorized, errors.ErrCodeUnauthorized, "User no longer exists", nil)
			return
		}

		ctx := context.WithValue(r.Context(), apiContext.Claims, claims)
		ctx = context.WithValue(ctx, apiContext.User, user)
		next(w, r.WithContext(ctx))
	}
}
