package errors

import (
	"encoding/json"
	"errors"
	"net/http"
)

// Domain error kinds. Every failing operation in the engine and platform
// layers returns one of these (possibly wrapped); handlers map them to
// HTTP responses with Write.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenInvalid       = errors.New("token invalid")
	ErrTokenExpired       = errors.New("token expired")
	ErrNoAccess           = errors.New("no access to this organization")
	ErrInsufficientRole   = errors.New("insufficient role for this action")
	ErrNoTenant           = errors.New("user has no organization")
	ErrInvalidTenant      = errors.New("invalid organization context")
	ErrNotFound           = errors.New("not found")
	ErrGuardViolation     = errors.New("lifecycle guard violated")
	ErrInvalidStatus      = errors.New("invalid status value")
	ErrPayloadTooLarge    = errors.New("payload too large")
	ErrRateLimited        = errors.New("rate limit exceeded")
)

type ErrorResponse struct {
	Error   string      `json:"error"`
	Message string      `json:"message"`
	Code    string      `json:"code"`
	Details interface{} `json:"details,omitempty"`
}

const (
	ErrCodeInvalidInput      = "INVALID_INPUT"
	ErrCodeUnauthorized      = "UNAUTHORIZED"
	ErrCodeForbidden         = "FORBIDDEN"
	ErrCodeNotFound          = "NOT_FOUND"
	ErrCodeGuardViolation    = "GUARD_VIOLATION"
	ErrCodeInvalidStatus     = "INVALID_STATUS"
	ErrCodePayloadTooLarge   = "PAYLOAD_TOO_LARGE"
	ErrCodeRateLimitExceeded = "RATE_LIMIT_EXCEEDED"
	ErrCodeInternal          = "INTERNAL_ERROR"
)

func WriteError(w http.ResponseWriter, status int, code, message string, details interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	json.NewEncoder(w).Encode(ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
		Code:    code,
		Details: details,
	})
}

// Write maps a domain error onto the HTTP surface. Unrecognized errors are
// reported as internal without leaking their message.
func Write(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		WriteError(w, http.StatusUnauthorized, ErrCodeUnauthorized, "Invalid credentials", nil)
	case errors.Is(err, ErrTokenExpired):
		WriteError(w, http.StatusUnauthorized, ErrCodeUnauthorized, "Token expired", nil)
	case errors.Is(err, ErrTokenInvalid):
		WriteError(w, http.StatusUnauthorized, ErrCodeUnauthorized, "Invalid token", nil)
	case errors.Is(err, ErrNoAccess), errors.Is(err, ErrInsufficientRole),
		errors.Is(err, ErrNoTenant), errors.Is(err, ErrInvalidTenant):
		WriteError(w, http.StatusForbidden, ErrCodeForbidden, err.Error(), nil)
	case errors.Is(err, ErrNotFound):
		WriteError(w, http.StatusNotFound, ErrCodeNotFound, "Not found", nil)
	case errors.Is(err, ErrGuardViolation):
		WriteError(w, http.StatusBadRequest, ErrCodeGuardViolation, err.Error(), nil)
	case errors.Is(err, ErrInvalidStatus):
		WriteError(w, http.StatusBadRequest, ErrCodeInvalidStatus, err.Error(), nil)
	case errors.Is(err, ErrPayloadTooLarge):
		WriteError(w, http.StatusRequestEntityTooLarge, ErrCodePayloadTooLarge, err.Error(), nil)
	case errors.Is(err, ErrRateLimited):
		WriteError(w, http.StatusTooManyRequests, ErrCodeRateLimitExceeded, "Rate limit exceeded", nil)
	default:
		WriteError(w, http.StatusInternalServerError, ErrCodeInternal, "Internal error", nil)
	}
}

// WriteMasked conflates authorization failures with absence. Portal, ticket
// and claim lookups use it so callers cannot distinguish a foreign-tenant
// entity from a missing one.
func WriteMasked(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNoAccess), errors.Is(err, ErrInsufficientRole),
		errors.Is(err, ErrNotFound), errors.Is(err, ErrTokenInvalid),
		errors.Is(err, ErrTokenExpired):
		WriteError(w, http.StatusNotFound, ErrCodeNotFound, "Not found", nil)
	default:
		Write(w, err)
	}
}
