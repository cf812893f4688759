package auth

import (
	stderrors "errors"
	"testing"

	"sponsorops/internal/pkg/errors"
	"sponsorops/internal/platform/config"
)

const testSecret = "test-secret-test-secret-test-secret!"

func TestTokenRoundTrip(t *testing.T) {
	svc := NewTokenService(config.JWTConfig{Secret: testSecret, TTLMinutes: 60})

	token, err := svc.IssueToken("usr_1", "a@b.c")
	if err != nil {
		t.Fatalf("Failed to issue token: %v", err)
	}

	claims, err := svc.ValidateToken(token)
	if err != nil {
		t.Fatalf("Failed to validate token: %v", err)
	}
	if claims.UserID != "usr_1" || claims.Email != "a@b.c" {
		t.Errorf("Claims mismatch: %+v", claims)
	}
}

func TestValidateToken_Expired(t *testing.T) {
	svc := NewTokenService(config.JWTConfig{Secret: testSecret, TTLMinutes: -1})

	token, err := svc.IssueToken("usr_1", "a@b.c")
	if err != nil {
		t.Fatalf("Failed to issue token: %v", err)
	}

	_, err = svc.ValidateToken(token)
	if !stderrors.Is(err, errors.ErrTokenExpired) {
		t.Fatalf("Expected token expired, got %v", err)
	}
}

func TestValidateToken_WrongSecret(t *testing.T) {
	issuer := NewTokenService(config.JWTConfig{Secret: testSecret, TTLMinutes: 60})
	verifier := NewTokenService(config.JWTConfig{Secret: "another-secret-another-secret-xx", TTLMinutes: 60})

	token, err := issuer.IssueToken("usr_1", "a@b.c")
	if err != nil {
		t.Fatalf("Failed to issue token: %v", err)
	}

	if _, err := verifier.ValidateToken(token); !stderrors.Is(err, errors.ErrTokenInvalid) {
		t.Fatalf("Expected token invalid, got %v", err)
	}
}

func TestValidateToken_Garbage(t *testing.T) {
	svc := NewTokenService(config.JWTConfig{Secret: testSecret, TTLMinutes: 60})

	for _, token := range []string{"", "not-a-jwt", "a.b.c"} {
		if _, err := svc.ValidateToken(token); !stderrors.Is(err, errors.ErrTokenInvalid) {
			t.Errorf("Expected token invalid for %q, got %v", token, err)
		}
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("hunter2hunter2")
	if err != nil {
		t.Fatalf("Failed to hash: %v", err)
	}
	if hash == "hunter2hunter2" {
		t.Fatal("Hash must not equal the password")
	}
	if !VerifyPassword("hunter2hunter2", hash) {
		t.Error("Expected correct password to verify")
	}
	if VerifyPassword("wrong", hash) {
		t.Error("Expected wrong password to fail")
	}
}
