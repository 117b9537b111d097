package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/brenbala/brenbala-api/internal/identity"
)

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("secret", time.Hour)
	user := identity.User{ID: "user-1", Email: "jane@example.com", TokenVersion: 3}

	token, err := tm.Issue(user)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	claims, err := tm.Parse(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.UserID != user.ID || claims.Email != user.Email || claims.Version != user.TokenVersion {
		t.Fatalf("unexpected claims %+v", claims)
	}
}

func TestTokenWrongSecret(t *testing.T) {
	token, err := NewTokenManager("secret-a", time.Hour).Issue(identity.User{ID: "user-1"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := NewTokenManager("secret-b", time.Hour).Parse(token); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestTokenExpired(t *testing.T) {
	tm := NewTokenManager("secret", -time.Minute)
	token, err := tm.Issue(identity.User{ID: "user-1"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := tm.Parse(token); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid for expired token, got %v", err)
	}
}

func TestTokenGarbage(t *testing.T) {
	tm := NewTokenManager("secret", time.Hour)
	if _, err := tm.Parse("not-a-token"); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}
