package account

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Service handles account administration
type Service struct {
	repo Repository
}

// NewService creates account service
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Get returns an account by ID
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Account, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns accounts for the admin view
func (s *Service) List(ctx context.Context, limit, offset int) ([]*Account, error) {
	return s.repo.List(ctx, limit, offset)
}

// SetActive toggles whether an account may authenticate. Deactivation takes
// effect on the next token issue; outstanding tokens carry the old flag until
// they expire.
func (s *Service) SetActive(ctx context.Context, id uuid.UUID, active bool) (*Account, error) {
	if err := s.repo.SetActive(ctx, id, active); err != nil {
		return nil, err
	}

	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	log.Info().Str("account_id", id.String()).Bool("active", active).Msg("account active flag changed")
	return a, nil
}
