package jwt

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	svc := NewService("secret", time.Hour)
	accountID := uuid.New()

	token, err := svc.GenerateAccessToken(accountID, "admin", true)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	claims, err := svc.ValidateAccessToken(token)
	if err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	if claims.AccountID != accountID {
		t.Fatalf("expected account %s, got %s", accountID, claims.AccountID)
	}
	if claims.Role != "admin" {
		t.Fatalf("expected role admin, got %s", claims.Role)
	}
	if !claims.Active {
		t.Fatal("expected active claim true")
	}
}

func TestAccessTokenWrongSecret(t *testing.T) {
	svc := NewService("secret", time.Hour)
	other := NewService("different", time.Hour)

	token, err := svc.GenerateAccessToken(uuid.New(), "client", true)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	if _, err := other.ValidateAccessToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestAccessTokenExpired(t *testing.T) {
	svc := NewService("secret", -time.Minute)

	token, err := svc.GenerateAccessToken(uuid.New(), "client", true)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	if _, err := svc.ValidateAccessToken(token); !errors.Is(err, ErrExpiredToken) {
		t.Fatalf("expected ErrExpiredToken, got %v", err)
	}
}

func TestAccessTokenGarbage(t *testing.T) {
	svc := NewService("secret", time.Hour)

	if _, err := svc.ValidateAccessToken("not.a.token"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}
