package wallet

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) EnsureWallet(ctx context.Context, accountID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO wallets (account_id, balance)
		VALUES ($1, 0)
		ON CONFLICT (account_id) DO NOTHING
	`, accountID)
	return err
}

func (r *Repository) GetBalance(ctx context.Context, accountID uuid.UUID) (int64, error) {
	if err := r.EnsureWallet(ctx, accountID); err != nil {
		return 0, err
	}

	var balance int64
	err := r.db.GetContext(ctx, &balance, `SELECT balance FROM wallets WHERE account_id = $1`, accountID)
	return balance, err
}

func (r *Repository) ListEntries(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*Entry, error) {
	var entries []*Entry
	err := r.db.SelectContext(ctx, &entries, `
		SELECT * FROM wallet_entries
		WHERE account_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, accountID, limit, offset)
	return entries, err
}

// SumEntries recomputes the balance from the ledger, bypassing the cached
// projection. Used by reconciliation.
func (r *Repository) SumEntries(ctx context.Context, accountID uuid.UUID) (int64, error) {
	var sum int64
	err := r.db.GetContext(ctx, &sum, `
		SELECT COALESCE(SUM(amount), 0) FROM wallet_entries WHERE account_id = $1
	`, accountID)
	return sum, err
}

// BeginTx opens a transaction for callers that need to couple a ledger
// mutation with their own state transition.
func (r *Repository) BeginTx(ctx context.Context) (*sqlx.Tx, error) {
	return r.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
}

func (r *Repository) lockWallet(ctx context.Context, tx *sqlx.Tx, accountID uuid.UUID) (int64, error) {
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO wallets (account_id, balance)
		VALUES ($1, 0)
		ON CONFLICT (account_id) DO NOTHING
	`, accountID); err != nil {
		return 0, err
	}

	var balance int64
	err := tx.GetContext(ctx, &balance, `SELECT balance FROM wallets WHERE account_id = $1 FOR UPDATE`, accountID)
	return balance, err
}

func (r *Repository) getEntryAmountByRef(ctx context.Context, tx *sqlx.Tx, accountID uuid.UUID, entryType EntryType, referenceID string) (int64, bool, error) {
	if referenceID == "" {
		return 0, false, nil
	}

	var amount int64
	err := tx.GetContext(ctx, &amount, `
		SELECT amount
		FROM wallet_entries
		WHERE account_id = $1 AND type = $2 AND reference_id = $3
		LIMIT 1
	`, accountID, string(entryType), referenceID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return amount, true, nil
}

func (r *Repository) updateBalance(ctx context.Context, tx *sqlx.Tx, accountID uuid.UUID, balance int64) error {
	_, err := tx.ExecContext(ctx, `UPDATE wallets SET balance = $1, updated_at = now() WHERE account_id = $2`, balance, accountID)
	return err
}

func (r *Repository) insertEntry(ctx context.Context, tx *sqlx.Tx, accountID uuid.UUID, amount int64, entryType EntryType, referenceID string) error {
	var ref interface{}
	if referenceID == "" {
		ref = nil
	} else {
		ref = referenceID
	}

	_, err := tx.ExecContext(ctx, `
		INSERT INTO wallet_entries (id, account_id, amount, type, reference_id)
		VALUES ($1, $2, $3, $4, $5)
	`, uuid.New(), accountID, amount, string(entryType), ref)
	if err != nil {
		// A unique violation here means a rival entry slipped past the
		// pre-check. Postgres has aborted the transaction at this point, so
		// no further query in it can inspect the existing row; the caller
		// gets the conflict and may retry in a fresh transaction, where the
		// pre-check serves the idempotent-replay case.
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrReferenceConflict
		}
		return err
	}
	return nil
}

// ApplyTx posts a signed amount inside the caller's transaction. The wallet
// row is locked FOR UPDATE, so concurrent mutations against the same account
// serialize on it. A reference seen before with the same amount is a no-op;
// with a different amount it fails ErrReferenceConflict. The resulting
// balance may never go negative.
func (r *Repository) ApplyTx(ctx context.Context, tx *sqlx.Tx, accountID uuid.UUID, amount int64, entryType EntryType, referenceID string) (int64, error) {
	balance, err := r.lockWallet(ctx, tx, accountID)
	if err != nil {
		return 0, err
	}

	existingAmount, exists, err := r.getEntryAmountByRef(ctx, tx, accountID, entryType, referenceID)
	if err != nil {
		return 0, err
	}
	if exists {
		if existingAmount != amount {
			return 0, ErrReferenceConflict
		}
		return balance, nil
	}

	nextBalance := balance + amount
	if nextBalance < 0 {
		return 0, ErrInsufficientFunds
	}

	if err := r.insertEntry(ctx, tx, accountID, amount, entryType, referenceID); err != nil {
		return 0, err
	}

	if err := r.updateBalance(ctx, tx, accountID, nextBalance); err != nil {
		return 0, err
	}

	return nextBalance, nil
}

func (r *Repository) apply(ctx context.Context, accountID uuid.UUID, amount int64, entryType EntryType, referenceID string) (int64, error) {
	tx, err := r.BeginTx(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	balance, err := r.ApplyTx(ctx, tx, accountID, amount, entryType, referenceID)
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return balance, nil
}

func (r *Repository) Credit(ctx context.Context, accountID uuid.UUID, amount int64, entryType EntryType, referenceID string) (int64, error) {
	return r.apply(ctx, accountID, amount, entryType, referenceID)
}

func (r *Repository) Debit(ctx context.Context, accountID uuid.UUID, amount int64, entryType EntryType, referenceID string) (int64, error) {
	return r.apply(ctx, accountID, -amount, entryType, referenceID)
}
