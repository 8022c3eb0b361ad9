package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/vispass/vispass-api/internal/domain/account"
	"github.com/vispass/vispass-api/internal/pkg/jwt"
	"github.com/vispass/vispass-api/internal/pkg/password"
)

type fakeAccountRepo struct {
	byEmail map[string]*account.Account
	byID    map[uuid.UUID]*account.Account
}

func newFakeAccountRepo() *fakeAccountRepo {
	return &fakeAccountRepo{
		byEmail: make(map[string]*account.Account),
		byID:    make(map[uuid.UUID]*account.Account),
	}
}

func (r *fakeAccountRepo) Create(_ context.Context, a *account.Account) error {
	if _, ok := r.byEmail[a.Email]; ok {
		return account.ErrEmailTaken
	}
	r.byEmail[a.Email] = a
	r.byID[a.ID] = a
	return nil
}

func (r *fakeAccountRepo) GetByID(_ context.Context, id uuid.UUID) (*account.Account, error) {
	a, ok := r.byID[id]
	if !ok {
		return nil, account.ErrNotFound
	}
	return a, nil
}

func (r *fakeAccountRepo) GetByEmail(_ context.Context, email string) (*account.Account, error) {
	a, ok := r.byEmail[email]
	if !ok {
		return nil, account.ErrNotFound
	}
	return a, nil
}

func (r *fakeAccountRepo) SetActive(_ context.Context, id uuid.UUID, active bool) error {
	a, ok := r.byID[id]
	if !ok {
		return account.ErrNotFound
	}
	a.Active = active
	return nil
}

func (r *fakeAccountRepo) List(_ context.Context, _, _ int) ([]*account.Account, error) {
	return nil, nil
}

func seedAccount(t *testing.T, repo *fakeAccountRepo, email, plain string, active bool) *account.Account {
	t.Helper()
	hash, err := password.Hash(plain)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	a := &account.Account{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hash,
		FullName:     "Test Account",
		Role:         account.RoleClient,
		Active:       active,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	if err := repo.Create(context.Background(), a); err != nil {
		t.Fatalf("seed account: %v", err)
	}
	return a
}

func newAuthService(repo *fakeAccountRepo) (*Service, *jwt.Service) {
	jwtService := jwt.NewService("test-secret", time.Hour)
	// walletRepo stays nil: Login and GetCurrentAccount never touch it
	return NewService(repo, nil, jwtService), jwtService
}

func TestLoginSuccess(t *testing.T) {
	repo := newFakeAccountRepo()
	a := seedAccount(t, repo, "visitor@example.com", "correct horse", true)
	svc, jwtService := newAuthService(repo)

	resp, err := svc.Login(context.Background(), &LoginRequest{
		Email:    "Visitor@Example.COM",
		Password: "correct horse",
	})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if resp.Account.ID != a.ID {
		t.Fatalf("expected account %s, got %s", a.ID, resp.Account.ID)
	}
	if resp.Tokens.TokenType != "Bearer" {
		t.Fatalf("expected Bearer token type, got %s", resp.Tokens.TokenType)
	}

	claims, err := jwtService.ValidateAccessToken(resp.Tokens.AccessToken)
	if err != nil {
		t.Fatalf("validate issued token: %v", err)
	}
	if claims.AccountID != a.ID {
		t.Fatalf("expected claims for %s, got %s", a.ID, claims.AccountID)
	}
	if claims.Role != string(account.RoleClient) {
		t.Fatalf("expected client role in claims, got %s", claims.Role)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	repo := newFakeAccountRepo()
	seedAccount(t, repo, "visitor@example.com", "correct horse", true)
	svc, _ := newAuthService(repo)

	_, err := svc.Login(context.Background(), &LoginRequest{
		Email:    "visitor@example.com",
		Password: "battery staple",
	})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestLoginUnknownEmail(t *testing.T) {
	repo := newFakeAccountRepo()
	svc, _ := newAuthService(repo)

	_, err := svc.Login(context.Background(), &LoginRequest{
		Email:    "nobody@example.com",
		Password: "whatever",
	})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestLoginDeactivatedAccount(t *testing.T) {
	repo := newFakeAccountRepo()
	seedAccount(t, repo, "banned@example.com", "correct horse", false)
	svc, _ := newAuthService(repo)

	_, err := svc.Login(context.Background(), &LoginRequest{
		Email:    "banned@example.com",
		Password: "correct horse",
	})
	if !errors.Is(err, ErrAccountDeactivated) {
		t.Fatalf("expected ErrAccountDeactivated, got %v", err)
	}
}

func TestGetCurrentAccount(t *testing.T) {
	repo := newFakeAccountRepo()
	a := seedAccount(t, repo, "visitor@example.com", "correct horse", true)
	svc, _ := newAuthService(repo)

	resp, err := svc.GetCurrentAccount(context.Background(), a.ID)
	if err != nil {
		t.Fatalf("get current account: %v", err)
	}
	if resp.Email != a.Email {
		t.Fatalf("expected %s, got %s", a.Email, resp.Email)
	}

	if _, err := svc.GetCurrentAccount(context.Background(), uuid.New()); !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}
