package api

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

func TestBearerTokenSuccess(t *testing.T) {
	token, err := bearerToken("Bearer header.payload.signature")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if token != "header.payload.signature" {
		t.Fatalf("unexpected token content: %s", token)
	}
}

func TestBearerTokenMissing(t *testing.T) {
	if _, err := bearerToken(""); err == nil || err.Error() != "missing authorization header" {
		t.Fatalf("expected missing header error, got %v", err)
	}
}

func TestBearerTokenNoPrefix(t *testing.T) {
	if _, err := bearerToken("Basic abc.def.ghi"); err == nil || err.Error() != "bad auth header" {
		t.Fatalf("expected bad auth header error, got %v", err)
	}
}

func TestBearerTokenManyPeriods(t *testing.T) {
	header := "Bearer " + strings.Repeat(".", 1000)
	if _, err := bearerToken(header); err == nil || err.Error() != "bad auth header" {
		t.Fatalf("expected bad auth header error, got %v", err)
	}
}

func TestSharedSecretIssueAndVerifyRoundTrip(t *testing.T) {
	auth := NewSharedSecretAuth([]byte("test-secret"), "api://board", "https://issuer/")

	signed, err := auth.IssueToken("user-123")
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	userID, err := auth.UserIDFromAuthHeader("Bearer " + signed)
	if err != nil {
		t.Fatalf("unexpected error verifying token: %v", err)
	}
	if userID != "user-123" {
		t.Fatalf("unexpected user id: %s", userID)
	}
}

func TestSharedSecretRejectsExpiredToken(t *testing.T) {
	secret := []byte("test-secret")
	claims := jwt.MapClaims{
		"sub": "user-123",
		"exp": time.Now().Add(-2 * time.Hour).Unix(),
		"iat": time.Now().Add(-3 * time.Hour).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	auth := NewSharedSecretAuth(secret, "", "")
	if _, err := auth.UserIDFromAuthHeader("Bearer " + signed); err == nil {
		t.Fatal("expected expired token to be rejected")
	}
}

func TestSharedSecretRejectsWrongAudience(t *testing.T) {
	auth := NewSharedSecretAuth([]byte("test-secret"), "api://board", "")
	signed, err := auth.IssueToken("user-123")
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	other := NewSharedSecretAuth([]byte("test-secret"), "api://other", "")
	if _, err := other.UserIDFromAuthHeader("Bearer " + signed); err == nil || err.Error() != "invalid audience" {
		t.Fatalf("expected invalid audience, got %v", err)
	}
}

func TestSharedSecretRejectsMissingSub(t *testing.T) {
	secret := []byte("test-secret")
	claims := jwt.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	auth := NewSharedSecretAuth(secret, "", "")
	if _, err := auth.UserIDFromAuthHeader("Bearer " + signed); err == nil || err.Error() != "missing sub" {
		t.Fatalf("expected missing sub, got %v", err)
	}
}

func TestIssueTokenRequiresSharedSecretMode(t *testing.T) {
	auth := NewAuth(nil, "", "")
	if _, err := auth.IssueToken("user-123"); err == nil {
		t.Fatal("expected issuance to fail in JWKS mode")
	}
}
