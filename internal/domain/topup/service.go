package topup

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/vispass/vispass-api/internal/domain/wallet"
)

// Notifier fans out top-up lifecycle events. Delivery failures never affect
// the underlying state change.
type Notifier interface {
	TopUpSubmitted(ctx context.Context, req *Request)
	TopUpDecided(ctx context.Context, req *Request)
}

// Service handles top-up submission and verification
type Service struct {
	repo       Repository
	walletRepo *wallet.Repository
	notifier   Notifier
}

// NewService creates top-up service
func NewService(repo Repository, walletRepo *wallet.Repository, notifier Notifier) *Service {
	return &Service{
		repo:       repo,
		walletRepo: walletRepo,
		notifier:   notifier,
	}
}

// Submit records a pending top-up request. The ledger is untouched until an
// admin approves.
func (s *Service) Submit(ctx context.Context, accountID uuid.UUID, amount int64, proofRef string, method Method) (*Request, error) {
	req := &Request{
		ID:        uuid.New(),
		AccountID: accountID,
		Amount:    amount,
		ProofRef:  proofRef,
		Method:    method,
		Status:    StatusPending,
		CreatedAt: time.Now(),
	}

	if err := s.repo.Create(ctx, req); err != nil {
		return nil, err
	}

	log.Info().Str("request_id", req.ID.String()).Str("account_id", accountID.String()).Int64("amount", amount).Str("method", string(method)).Msg("top-up submitted")

	if s.notifier != nil {
		s.notifier.TopUpSubmitted(ctx, req)
	}
	return req, nil
}

// ListPending returns undecided requests for the verification queue
func (s *Service) ListPending(ctx context.Context, limit, offset int) ([]*Request, error) {
	return s.repo.ListPending(ctx, limit, offset)
}

// ListMine returns the account's own submissions
func (s *Service) ListMine(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*Request, error) {
	return s.repo.ListByAccount(ctx, accountID, limit, offset)
}

// Decide settles a pending request. Approval marks the request approved and
// credits the wallet in one database transaction; a crash cannot leave an
// approved request without its credit. Rejection records the verdict only.
func (s *Service) Decide(ctx context.Context, requestID uuid.UUID, verdict Status, adminID uuid.UUID, adminNote string) (*Request, error) {
	if verdict != StatusApproved && verdict != StatusRejected {
		return nil, ErrInvalidVerdict
	}

	req, err := s.repo.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.IsTerminal() {
		return nil, ErrAlreadyDecided
	}

	decidedAt := time.Now()

	tx, err := s.walletRepo.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if err := s.repo.DecideTx(ctx, tx, requestID, verdict, adminID, adminNote, decidedAt); err != nil {
		return nil, err
	}

	if verdict == StatusApproved {
		// The request ID doubles as the ledger idempotency reference.
		if _, err := s.walletRepo.ApplyTx(ctx, tx, req.AccountID, req.Amount, wallet.EntryTypeTopUp, requestID.String()); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	req.Status = verdict
	req.DecidedAt.Time = decidedAt
	req.DecidedAt.Valid = true
	req.DecidedBy.UUID = adminID
	req.DecidedBy.Valid = true
	if adminNote != "" {
		req.AdminNote.String = adminNote
		req.AdminNote.Valid = true
	}

	log.Info().Str("request_id", requestID.String()).Str("verdict", string(verdict)).Str("admin_id", adminID.String()).Msg("top-up decided")

	if s.notifier != nil {
		s.notifier.TopUpDecided(ctx, req)
	}
	return req, nil
}
