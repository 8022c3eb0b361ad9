package pass

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Repository defines pass credential data access
type Repository interface {
	CreateTx(ctx context.Context, tx *sqlx.Tx, c *Credential) error
	GetByID(ctx context.Context, id uuid.UUID) (*Credential, error)
	GetByToken(ctx context.Context, token string) (*Credential, error)
	ListByAccount(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*Credential, error)
	// Consume transitions issued -> consumed for an unexpired token.
	// Returns the consumed credential, or an error classifying why the
	// transition was refused.
	Consume(ctx context.Context, token string, at time.Time) (*Credential, error)
	// ExpireTx transitions issued -> expired inside the caller's transaction.
	ExpireTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, at time.Time) error
	// ExpireOverdue transitions every issued credential past its expiry and
	// returns the affected credentials.
	ExpireOverdue(ctx context.Context, now time.Time) ([]*Credential, error)
}

type repository struct {
	db *sqlx.DB
}

// NewRepository creates pass repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreateTx(ctx context.Context, tx *sqlx.Tx, c *Credential) error {
	query := `
		INSERT INTO pass_credentials (id, account_id, visitor_name, purpose, token, status, fee_charged, issued_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := tx.ExecContext(ctx, query,
		c.ID,
		c.AccountID,
		c.VisitorName,
		c.Purpose,
		c.Token,
		c.Status,
		c.FeeCharged,
		c.IssuedAt,
		c.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("pass repository create: %w", err)
	}
	return nil
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Credential, error) {
	var c Credential
	err := r.db.GetContext(ctx, &c, `SELECT * FROM pass_credentials WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("pass repository get by id: %w", err)
	}
	return &c, nil
}

func (r *repository) GetByToken(ctx context.Context, token string) (*Credential, error) {
	var c Credential
	err := r.db.GetContext(ctx, &c, `SELECT * FROM pass_credentials WHERE token = $1`, token)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("pass repository get by token: %w", err)
	}
	return &c, nil
}

func (r *repository) ListByAccount(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*Credential, error) {
	var credentials []*Credential
	err := r.db.SelectContext(ctx, &credentials, `
		SELECT * FROM pass_credentials
		WHERE account_id = $1
		ORDER BY issued_at DESC
		LIMIT $2 OFFSET $3
	`, accountID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("pass repository list by account: %w", err)
	}
	return credentials, nil
}

func (r *repository) Consume(ctx context.Context, token string, at time.Time) (*Credential, error) {
	// The status guard makes redemption single-shot: a second scan of the
	// same token affects zero rows and is classified below.
	var c Credential
	err := r.db.GetContext(ctx, &c, `
		UPDATE pass_credentials
		SET status = 'consumed', consumed_at = $1
		WHERE token = $2
		  AND status = 'issued'
		  AND (expires_at IS NULL OR expires_at > $1)
		RETURNING *
	`, at, token)
	if err == nil {
		return &c, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("pass repository consume: %w", err)
	}

	existing, lookupErr := r.GetByToken(ctx, token)
	if lookupErr != nil {
		return nil, lookupErr
	}
	switch {
	case existing.Status == StatusConsumed:
		return nil, ErrAlreadyConsumed
	case existing.Status == StatusExpired:
		return nil, ErrExpired
	case existing.ExpiresAt.Valid && !existing.ExpiresAt.Time.After(at):
		return nil, ErrExpired
	default:
		return nil, ErrNotActive
	}
}

func (r *repository) ExpireTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, at time.Time) error {
	result, err := tx.ExecContext(ctx, `
		UPDATE pass_credentials
		SET status = 'expired', consumed_at = NULL, expires_at = $1
		WHERE id = $2 AND status = 'issued'
	`, at, id)
	if err != nil {
		return fmt.Errorf("pass repository expire: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("pass repository expire rows affected: %w", err)
	}
	if affected == 0 {
		existing, lookupErr := r.GetByID(ctx, id)
		if lookupErr != nil {
			return lookupErr
		}
		if existing.Status == StatusConsumed {
			return ErrAlreadyConsumed
		}
		return ErrNotActive
	}
	return nil
}

func (r *repository) ExpireOverdue(ctx context.Context, now time.Time) ([]*Credential, error) {
	var expired []*Credential
	err := r.db.SelectContext(ctx, &expired, `
		UPDATE pass_credentials
		SET status = 'expired'
		WHERE status = 'issued' AND expires_at IS NOT NULL AND expires_at <= $1
		RETURNING *
	`, now)
	if err != nil {
		return nil, fmt.Errorf("pass repository expire overdue: %w", err)
	}
	return expired, nil
}
