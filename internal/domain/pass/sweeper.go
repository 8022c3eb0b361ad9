package pass

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// Sweeper marks overdue passes as expired in the background
type Sweeper struct {
	svc *Service
}

// NewSweeper creates a sweeper
func NewSweeper(svc *Service) *Sweeper {
	return &Sweeper{svc: svc}
}

// Start starts the sweeper with the given interval. It blocks until ctx is
// cancelled, so run it in its own goroutine. A zero pass TTL disables the
// sweeper entirely.
func (s *Sweeper) Start(ctx context.Context, interval time.Duration) {
	if s.svc.cfg.TTL <= 0 {
		log.Info().Msg("Pass expiry sweeper disabled (no TTL configured)")
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Run immediately on start
	s.run(ctx)

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Pass expiry sweeper stopped")
			return
		case <-ticker.C:
			s.run(ctx)
		}
	}
}

// run executes one sweep
func (s *Sweeper) run(ctx context.Context) {
	expired, err := s.svc.ExpireOverdue(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to expire overdue passes")
		return
	}

	if expired > 0 {
		log.Info().Int("expired", expired).Msg("Expired overdue passes")
	}
}
