package proof

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/vispass/vispass-api/internal/pkg/imaging"
	"github.com/vispass/vispass-api/internal/pkg/storage"
)

const maxProofSize = 10 * 1024 * 1024 // 10 MB

// Service handles proof upload logic
type Service struct {
	repo      Repository
	storage   storage.Storage
	processor *imaging.Processor
}

// NewService creates proof service
func NewService(repo Repository, st storage.Storage, processor *imaging.Processor) *Service {
	return &Service{repo: repo, storage: st, processor: processor}
}

// Upload validates and normalizes a receipt image, stores the file and
// records the proof row.
func (s *Service) Upload(ctx context.Context, accountID uuid.UUID, file io.Reader) (*Proof, error) {
	data, mimeType, err := storage.ValidateImage(file, maxProofSize)
	if err != nil {
		return nil, err
	}

	normalized, contentType, width, height, err := s.processor.Normalize(data, mimeType)
	if err != nil {
		return nil, fmt.Errorf("normalize proof image: %w", err)
	}

	id := uuid.New()
	key := fmt.Sprintf("proofs/%s/%s.jpg", accountID.String(), id.String())

	if err := s.storage.Put(ctx, key, bytes.NewReader(normalized), contentType); err != nil {
		return nil, fmt.Errorf("store proof image: %w", err)
	}

	p := &Proof{
		ID:         id,
		AccountID:  accountID,
		Key:        key,
		URL:        s.storage.URL(key),
		MimeType:   contentType,
		SizeBytes:  int64(len(normalized)),
		Width:      width,
		Height:     height,
		UploadedAt: time.Now(),
	}

	if err := s.repo.Create(ctx, p); err != nil {
		// Best effort: don't leave an orphaned object behind
		if delErr := s.storage.Delete(ctx, key); delErr != nil {
			log.Warn().Err(delErr).Str("key", key).Msg("failed to remove orphaned proof object")
		}
		return nil, err
	}

	log.Info().Str("proof_id", id.String()).Str("account_id", accountID.String()).Msg("proof uploaded")
	return p, nil
}

// Get returns a proof. Non-owners are rejected unless staff is set.
func (s *Service) Get(ctx context.Context, id, accountID uuid.UUID, staff bool) (*Proof, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !staff && p.AccountID != accountID {
		return nil, ErrNotOwner
	}
	return p, nil
}

// ListMine returns the account's uploaded proofs
func (s *Service) ListMine(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*Proof, error) {
	return s.repo.ListByAccount(ctx, accountID, limit, offset)
}
