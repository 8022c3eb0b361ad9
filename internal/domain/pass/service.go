package pass

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/vispass/vispass-api/internal/domain/wallet"
)

// Notifier fans out pass lifecycle events. Delivery failures never affect
// the underlying state change.
type Notifier interface {
	PassIssued(ctx context.Context, c *Credential)
	PassConsumed(ctx context.Context, c *Credential)
	PassExpired(ctx context.Context, c *Credential)
}

// Config holds issuance policy
type Config struct {
	Fee int64         // entry fee in minor units
	TTL time.Duration // 0 means passes never expire
}

// Service implements the pass state machine: none -> issued -> consumed
// or expired.
type Service struct {
	repo       Repository
	walletRepo *wallet.Repository
	notifier   Notifier
	cfg        Config
}

// NewService creates pass service
func NewService(repo Repository, walletRepo *wallet.Repository, notifier Notifier, cfg Config) *Service {
	return &Service{
		repo:       repo,
		walletRepo: walletRepo,
		notifier:   notifier,
		cfg:        cfg,
	}
}

// Fee returns the configured entry fee
func (s *Service) Fee() int64 {
	return s.cfg.Fee
}

// Issue mints a credential for a funded account. The fee debit and the
// credential insert commit in one transaction: there is no window where the
// fee is charged without a credential, or a credential exists unpaid.
func (s *Service) Issue(ctx context.Context, accountID uuid.UUID, visitorName, purpose string) (*Credential, int64, error) {
	token, err := generateToken()
	if err != nil {
		return nil, 0, err
	}

	now := time.Now()
	c := &Credential{
		ID:          uuid.New(),
		AccountID:   accountID,
		VisitorName: visitorName,
		Purpose:     purpose,
		Token:       token,
		Status:      StatusIssued,
		FeeCharged:  s.cfg.Fee,
		IssuedAt:    now,
	}
	if s.cfg.TTL > 0 {
		c.ExpiresAt.Time = now.Add(s.cfg.TTL)
		c.ExpiresAt.Valid = true
	}

	tx, err := s.walletRepo.BeginTx(ctx)
	if err != nil {
		return nil, 0, err
	}
	defer tx.Rollback()

	balance, err := s.walletRepo.ApplyTx(ctx, tx, accountID, -s.cfg.Fee, wallet.EntryTypePassFee, c.ID.String())
	if err != nil {
		// An underfunded account learns its current balance alongside the
		// rejection so the client can show the shortfall.
		if errors.Is(err, wallet.ErrInsufficientFunds) {
			if current, balErr := s.walletRepo.GetBalance(ctx, accountID); balErr == nil {
				return nil, current, err
			}
		}
		return nil, 0, err
	}

	if err := s.repo.CreateTx(ctx, tx, c); err != nil {
		return nil, 0, err
	}

	if err := tx.Commit(); err != nil {
		return nil, 0, err
	}

	log.Info().Str("pass_id", c.ID.String()).Str("account_id", accountID.String()).Int64("fee", s.cfg.Fee).Msg("pass issued")

	if s.notifier != nil {
		s.notifier.PassIssued(ctx, c)
	}
	return c, balance, nil
}

// Redeem consumes a credential at the gate. The transition is single-shot:
// a second scan fails ErrAlreadyConsumed and leaves the balance untouched.
func (s *Service) Redeem(ctx context.Context, token string) (*Credential, error) {
	c, err := s.repo.Consume(ctx, token, time.Now())
	if err != nil {
		return nil, err
	}

	log.Info().Str("pass_id", c.ID.String()).Str("account_id", c.AccountID.String()).Msg("pass consumed")

	if s.notifier != nil {
		s.notifier.PassConsumed(ctx, c)
	}
	return c, nil
}

// Cancel expires an issued credential at the owner's request and refunds the
// fee. Natural TTL expiry does not refund; cancellation does, because the
// credential was never usable at the gate afterwards.
func (s *Service) Cancel(ctx context.Context, credentialID, accountID uuid.UUID) (*Credential, error) {
	c, err := s.repo.GetByID(ctx, credentialID)
	if err != nil {
		return nil, err
	}
	if c.AccountID != accountID {
		return nil, ErrNotOwner
	}

	now := time.Now()

	tx, err := s.walletRepo.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if err := s.repo.ExpireTx(ctx, tx, credentialID, now); err != nil {
		return nil, err
	}

	if _, err := s.walletRepo.ApplyTx(ctx, tx, accountID, c.FeeCharged, wallet.EntryTypePassRefund, credentialID.String()); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	c.Status = StatusExpired
	c.ExpiresAt.Time = now
	c.ExpiresAt.Valid = true

	log.Info().Str("pass_id", credentialID.String()).Str("account_id", accountID.String()).Int64("refund", c.FeeCharged).Msg("pass cancelled and refunded")

	if s.notifier != nil {
		s.notifier.PassExpired(ctx, c)
	}
	return c, nil
}

// Get returns a credential visible to its owner
func (s *Service) Get(ctx context.Context, credentialID, accountID uuid.UUID) (*Credential, error) {
	c, err := s.repo.GetByID(ctx, credentialID)
	if err != nil {
		return nil, err
	}
	if c.AccountID != accountID {
		return nil, ErrNotOwner
	}
	return c, nil
}

// ListMine returns the account's credentials
func (s *Service) ListMine(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*Credential, error) {
	return s.repo.ListByAccount(ctx, accountID, limit, offset)
}

// ExpireOverdue sweeps issued credentials past their TTL. Called by the
// background sweeper; no refunds apply.
func (s *Service) ExpireOverdue(ctx context.Context) (int, error) {
	expired, err := s.repo.ExpireOverdue(ctx, time.Now())
	if err != nil {
		return 0, err
	}

	for _, c := range expired {
		if s.notifier != nil {
			s.notifier.PassExpired(ctx, c)
		}
	}
	return len(expired), nil
}

func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
