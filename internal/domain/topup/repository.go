package topup

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Repository defines top-up request data access
type Repository interface {
	Create(ctx context.Context, req *Request) error
	GetByID(ctx context.Context, id uuid.UUID) (*Request, error)
	ListPending(ctx context.Context, limit, offset int) ([]*Request, error)
	ListByAccount(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*Request, error)
	// DecideTx transitions pending -> verdict inside the caller's transaction.
	// Returns ErrAlreadyDecided when the request exists but is no longer
	// pending, ErrNotFound when it does not exist.
	DecideTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, verdict Status, adminID uuid.UUID, adminNote string, decidedAt time.Time) error
}

type repository struct {
	db *sqlx.DB
}

// NewRepository creates top-up repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, req *Request) error {
	query := `
		INSERT INTO topup_requests (id, account_id, amount, proof_ref, method, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.ExecContext(ctx, query,
		req.ID,
		req.AccountID,
		req.Amount,
		req.ProofRef,
		req.Method,
		req.Status,
		req.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("topup repository create: %w", err)
	}
	return nil
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Request, error) {
	var req Request
	err := r.db.GetContext(ctx, &req, `SELECT * FROM topup_requests WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("topup repository get by id: %w", err)
	}
	return &req, nil
}

func (r *repository) ListPending(ctx context.Context, limit, offset int) ([]*Request, error) {
	var requests []*Request
	err := r.db.SelectContext(ctx, &requests, `
		SELECT * FROM topup_requests
		WHERE status = 'pending'
		ORDER BY created_at ASC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("topup repository list pending: %w", err)
	}
	return requests, nil
}

func (r *repository) ListByAccount(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*Request, error) {
	var requests []*Request
	err := r.db.SelectContext(ctx, &requests, `
		SELECT * FROM topup_requests
		WHERE account_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, accountID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("topup repository list by account: %w", err)
	}
	return requests, nil
}

func (r *repository) DecideTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, verdict Status, adminID uuid.UUID, adminNote string, decidedAt time.Time) error {
	var note interface{}
	if adminNote != "" {
		note = adminNote
	}

	// The status guard makes the pending->terminal transition happen at most
	// once even under concurrent decisions.
	result, err := tx.ExecContext(ctx, `
		UPDATE topup_requests
		SET status = $1, decided_by = $2, admin_note = $3, decided_at = $4
		WHERE id = $5 AND status = 'pending'
	`, verdict, adminID, note, decidedAt, id)
	if err != nil {
		return fmt.Errorf("topup repository decide: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("topup repository decide rows affected: %w", err)
	}
	if affected == 0 {
		var exists bool
		if err := tx.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM topup_requests WHERE id = $1)`, id); err != nil {
			return fmt.Errorf("topup repository decide existence check: %w", err)
		}
		if !exists {
			return ErrNotFound
		}
		return ErrAlreadyDecided
	}
	return nil
}
