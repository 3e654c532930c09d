package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestGenerateAndValidateJWT(t *testing.T) {
	svc := NewJWTService("test-secret-key")

	token, err := svc.GenerateToken("user-123", "alice")
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	claims, err := svc.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken failed: %v", err)
	}
	if claims.UserID != "user-123" {
		t.Errorf("expected UserID 'user-123', got '%s'", claims.UserID)
	}
	if claims.Username != "alice" {
		t.Errorf("expected Username 'alice', got '%s'", claims.Username)
	}
}

func TestValidateExpiredToken(t *testing.T) {
	svc := NewJWTServiceWithDuration("test-secret-key", -1*time.Hour)

	token, err := svc.GenerateToken("user-123", "alice")
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}
	if _, err := svc.ValidateToken(token); err == nil {
		t.Fatal("expected error for expired token, got nil")
	}
}

func TestValidateInvalidToken(t *testing.T) {
	svc := NewJWTService("test-secret-key")
	if _, err := svc.ValidateToken("not-a-valid-token"); err == nil {
		t.Fatal("expected error for invalid token, got nil")
	}
}

func TestValidateWrongSecret(t *testing.T) {
	token, err := NewJWTService("secret-a").GenerateToken("user-1", "alice")
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}
	if _, err := NewJWTService("secret-b").ValidateToken(token); err == nil {
		t.Fatal("expected error for token signed with another secret")
	}
}

func TestRejectsNoneAlgorithm(t *testing.T) {
	claims := Claims{UserID: "user-1", RegisteredClaims: jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("failed to sign: %v", err)
	}
	if _, err := NewJWTService("secret").ValidateToken(token); err == nil {
		t.Fatal("expected unsigned token to be rejected")
	}
}

func TestRejectsForeignIssuer(t *testing.T) {
	claims := Claims{UserID: "user-1", RegisteredClaims: jwt.RegisteredClaims{
		Issuer:    "someone-else",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("failed to sign: %v", err)
	}
	if _, err := NewJWTService("secret").ValidateToken(token); err == nil {
		t.Fatal("expected token from another issuer to be rejected")
	}
}

func TestRejectsTokenWithoutExpiry(t *testing.T) {
	claims := Claims{UserID: "user-1", RegisteredClaims: jwt.RegisteredClaims{Issuer: Issuer}}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("failed to sign: %v", err)
	}
	if _, err := NewJWTService("secret").ValidateToken(token); err == nil {
		t.Fatal("expected token without expiry to be rejected")
	}
}

func TestClaimsContext(t *testing.T) {
	ctx := context.Background()
	if _, ok := ClaimsFromContext(ctx); ok {
		t.Fatal("expected no claims in empty context")
	}
	ctx = ContextWithClaims(ctx, &Claims{UserID: "u"})
	c, ok := ClaimsFromContext(ctx)
	if !ok || c.UserID != "u" {
		t.Fatalf("expected claims for u, got %+v", c)
	}
}
