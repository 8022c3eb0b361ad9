package wallet

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type Service struct {
	repo *Repository
}

func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) GetBalance(ctx context.Context, accountID uuid.UUID) (int64, error) {
	return s.repo.GetBalance(ctx, accountID)
}

func (s *Service) History(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*Entry, error) {
	return s.repo.ListEntries(ctx, accountID, limit, offset)
}

func (s *Service) Credit(ctx context.Context, accountID uuid.UUID, amount int64, entryType EntryType, referenceID string) (int64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}
	balance, err := s.repo.Credit(ctx, accountID, amount, entryType, referenceID)
	if err != nil {
		return 0, err
	}
	log.Info().Str("account_id", accountID.String()).Int64("amount", amount).Str("type", string(entryType)).Str("reference_id", referenceID).Msg("wallet credit applied")
	return balance, nil
}

func (s *Service) Debit(ctx context.Context, accountID uuid.UUID, amount int64, entryType EntryType, referenceID string) (int64, error) {
	if amount <= 0 || referenceID == "" {
		return 0, ErrInvalidAmount
	}
	balance, err := s.repo.Debit(ctx, accountID, amount, entryType, referenceID)
	if err != nil {
		if errors.Is(err, ErrInsufficientFunds) {
			return 0, ErrInsufficientFunds
		}
		return 0, err
	}
	log.Info().Str("account_id", accountID.String()).Int64("amount", amount).Str("type", string(entryType)).Str("reference_id", referenceID).Msg("wallet debit applied")
	return balance, nil
}

// Reconcile compares the cached balance against the ledger sum. A mismatch
// means the projection drifted; it is reported, not silently repaired.
func (s *Service) Reconcile(ctx context.Context, accountID uuid.UUID) (cached int64, recomputed int64, err error) {
	cached, err = s.repo.GetBalance(ctx, accountID)
	if err != nil {
		return 0, 0, err
	}
	recomputed, err = s.repo.SumEntries(ctx, accountID)
	if err != nil {
		return 0, 0, err
	}
	if cached != recomputed {
		log.Error().Str("account_id", accountID.String()).Int64("cached", cached).Int64("recomputed", recomputed).Msg("wallet balance drift detected")
	}
	return cached, recomputed, nil
}
