package proof

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Repository defines proof data access
type Repository interface {
	Create(ctx context.Context, p *Proof) error
	GetByID(ctx context.Context, id uuid.UUID) (*Proof, error)
	ListByAccount(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*Proof, error)
}

type repository struct {
	db *sqlx.DB
}

// NewRepository creates proof repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, p *Proof) error {
	query := `
		INSERT INTO proofs (id, account_id, key, url, mime_type, size_bytes, width, height, uploaded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.db.ExecContext(ctx, query,
		p.ID,
		p.AccountID,
		p.Key,
		p.URL,
		p.MimeType,
		p.SizeBytes,
		p.Width,
		p.Height,
		p.UploadedAt,
	)
	return err
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Proof, error) {
	query := `SELECT * FROM proofs WHERE id = $1`
	var p Proof
	err := r.db.GetContext(ctx, &p, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *repository) ListByAccount(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*Proof, error) {
	query := `
		SELECT * FROM proofs
		WHERE account_id = $1
		ORDER BY uploaded_at DESC
		LIMIT $2 OFFSET $3
	`
	var proofs []*Proof
	err := r.db.SelectContext(ctx, &proofs, query, accountID, limit, offset)
	return proofs, err
}
