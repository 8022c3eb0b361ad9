package wallet

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// A unique violation on the entry insert aborts the Postgres transaction, so
// ApplyTx must return the conflict without issuing further queries in it.
func TestApplyTxUniqueViolationReturnsConflict(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer mockDB.Close()

	repo := &Repository{db: sqlx.NewDb(mockDB, "sqlmock")}
	accountID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO wallets").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT balance FROM wallets").
		WillReturnRows(sqlmock.NewRows([]string{"balance"}).AddRow(500))
	mock.ExpectQuery("SELECT amount").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec("INSERT INTO wallet_entries").
		WillReturnError(&pq.Error{Code: "23505"})
	mock.ExpectRollback()

	tx, err := repo.BeginTx(context.Background())
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	defer tx.Rollback()

	_, err = repo.ApplyTx(context.Background(), tx, accountID, 100, EntryTypeTopUp, "ref-1")
	if !errors.Is(err, ErrReferenceConflict) {
		t.Fatalf("expected ErrReferenceConflict, got %v", err)
	}

	if err := tx.Rollback(); err != nil {
		t.Fatalf("rollback: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unexpected statements after the violation: %v", err)
	}
}
