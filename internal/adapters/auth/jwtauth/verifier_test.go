package jwtauth

import (
	"context"
	"errors"
	"testing"

	"cad-care-tracker/internal/ports/auth"
)

func TestVerify_RoundTrip(t *testing.T) {
	v, err := NewVerifier("test-secret")
	if err != nil {
		t.Fatalf("new verifier: %v", err)
	}

	token, err := v.Sign("user-1", auth.RoleCaregiver)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	claims, err := v.Verify(context.Background(), token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.UserID != "user-1" || claims.Role != auth.RoleCaregiver {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestVerify_WrongSecret(t *testing.T) {
	issuer, _ := NewVerifier("secret-a")
	verifier, _ := NewVerifier("secret-b")

	token, _ := issuer.Sign("user-1", auth.RolePatient)
	if _, err := verifier.Verify(context.Background(), token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestVerify_EmptyToken(t *testing.T) {
	v, _ := NewVerifier("test-secret")
	if _, err := v.Verify(context.Background(), "  "); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestNewVerifier_RequiresSecret(t *testing.T) {
	if _, err := NewVerifier(" "); !errors.Is(err, ErrNoSecret) {
		t.Fatalf("expected ErrNoSecret, got %v", err)
	}
}
