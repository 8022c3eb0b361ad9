package auth

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/vispass/vispass-api/internal/domain/account"
	"github.com/vispass/vispass-api/internal/domain/wallet"
	"github.com/vispass/vispass-api/internal/pkg/jwt"
	"github.com/vispass/vispass-api/internal/pkg/password"
)

// Service handles authentication business logic
type Service struct {
	accountRepo account.Repository
	walletRepo  *wallet.Repository
	jwtService  *jwt.Service
}

// NewService creates auth service
func NewService(accountRepo account.Repository, walletRepo *wallet.Repository, jwtService *jwt.Service) *Service {
	return &Service{
		accountRepo: accountRepo,
		walletRepo:  walletRepo,
		jwtService:  jwtService,
	}
}

// Register creates a client account and provisions its wallet
func (s *Service) Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error) {
	req.Email = normalizeEmail(req.Email)

	existing, _ := s.accountRepo.GetByEmail(ctx, req.Email)
	if existing != nil {
		return nil, ErrEmailAlreadyExists
	}

	hash, err := password.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	a := &account.Account{
		ID:           uuid.New(),
		Email:        req.Email,
		PasswordHash: hash,
		FullName:     req.FullName,
		Role:         account.RoleClient,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.accountRepo.Create(ctx, a); err != nil {
		return nil, err
	}

	// Every account gets a zero-balance wallet up front
	if err := s.walletRepo.EnsureWallet(ctx, a.ID); err != nil {
		return nil, err
	}

	return s.authResponse(a)
}

// Login authenticates an account
func (s *Service) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	req.Email = normalizeEmail(req.Email)

	a, err := s.accountRepo.GetByEmail(ctx, req.Email)
	if err != nil || a == nil {
		return nil, ErrInvalidCredentials
	}

	if !password.Verify(req.Password, a.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	if !a.Active {
		return nil, ErrAccountDeactivated
	}

	return s.authResponse(a)
}

// GetCurrentAccount returns the authenticated account
func (s *Service) GetCurrentAccount(ctx context.Context, accountID uuid.UUID) (*AccountResponse, error) {
	a, err := s.accountRepo.GetByID(ctx, accountID)
	if err != nil || a == nil {
		return nil, ErrAccountNotFound
	}

	resp := AccountResponseFromEntity(a)
	return &resp, nil
}

func (s *Service) authResponse(a *account.Account) (*AuthResponse, error) {
	accessToken, err := s.jwtService.GenerateAccessToken(a.ID, string(a.Role), a.Active)
	if err != nil {
		return nil, err
	}

	return &AuthResponse{
		Account: AccountResponseFromEntity(a),
		Tokens: TokensResponse{
			AccessToken: accessToken,
			ExpiresIn:   int(s.jwtService.GetAccessTTL().Seconds()),
			TokenType:   "Bearer",
		},
	}, nil
}
