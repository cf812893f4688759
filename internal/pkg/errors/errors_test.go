package errors

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestWrite(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"Invalid Credentials", ErrInvalidCredentials, http.StatusUnauthorized, ErrCodeUnauthorized},
		{"No Access", ErrNoAccess, http.StatusForbidden, ErrCodeForbidden},
		{"Not Found", ErrNotFound, http.StatusNotFound, ErrCodeNotFound},
		{"Guard Violation", fmt.Errorf("%w: details", ErrGuardViolation), http.StatusBadRequest, ErrCodeGuardViolation},
		{"Invalid Status", ErrInvalidStatus, http.StatusBadRequest, ErrCodeInvalidStatus},
		{"Too Large", ErrPayloadTooLarge, http.StatusRequestEntityTooLarge, ErrCodePayloadTooLarge},
		{"Rate Limited", ErrRateLimited, http.StatusTooManyRequests, ErrCodeRateLimitExceeded},
		{"Unknown", fmt.Errorf("disk on fire"), http.StatusInternalServerError, ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			Write(rr, tt.err)

			if rr.Code != tt.status {
				t.Errorf("Expected %d, got %d", tt.status, rr.Code)
			}
			var resp ErrorResponse
			if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
				t.Fatalf("Failed to decode: %v", err)
			}
			if resp.Code != tt.code {
				t.Errorf("Expected code %s, got %s", tt.code, resp.Code)
			}
		})
	}

	// internal errors never leak their message
	rr := httptest.NewRecorder()
	Write(rr, fmt.Errorf("dsn=user:hunter2@tcp"))
	var resp ErrorResponse
	json.NewDecoder(rr.Body).Decode(&resp)
	if resp.Message != "Internal error" {
		t.Errorf("Internal error message leaked: %q", resp.Message)
	}
}

func TestWriteMasked(t *testing.T) {
	// authorization failures collapse into 404 so callers cannot probe
	masked := []error{ErrNoAccess, ErrInsufficientRole, ErrNotFound, ErrTokenInvalid, ErrTokenExpired}
	for _, err := range masked {
		rr := httptest.NewRecorder()
		WriteMasked(rr, err)
		if rr.Code != http.StatusNotFound {
			t.Errorf("WriteMasked(%v): expected 404, got %d", err, rr.Code)
		}
		var resp ErrorResponse
		json.NewDecoder(rr.Body).Decode(&resp)
		if resp.Message != "Not found" {
			t.Errorf("WriteMasked(%v): message %q leaks the cause", err, resp.Message)
		}
	}

	// everything else keeps its normal mapping
	rr := httptest.NewRecorder()
	WriteMasked(rr, ErrGuardViolation)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected guard violation to pass through, got %d", rr.Code)
	}
}
