package wallet

import (
	"time"

	"github.com/google/uuid"
)

// EntryType classifies a ledger entry
type EntryType string

const (
	EntryTypeTopUp      EntryType = "topup"       // admin-approved top-up credit
	EntryTypePassFee    EntryType = "pass_fee"    // visitor pass issuance debit
	EntryTypePassRefund EntryType = "pass_refund" // refund for a cancelled pass
	EntryTypeAdjustment EntryType = "adjustment"  // manual admin correction
)

// Wallet is the cached balance projection for one account. The ledger
// entries are the source of truth; Balance must always equal their sum.
type Wallet struct {
	AccountID uuid.UUID `db:"account_id" json:"account_id"`
	Balance   int64     `db:"balance" json:"balance"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Entry is one immutable ledger line. Amount is signed: positive for
// credits, negative for debits.
type Entry struct {
	ID          uuid.UUID `db:"id" json:"id"`
	AccountID   uuid.UUID `db:"account_id" json:"account_id"`
	Amount      int64     `db:"amount" json:"amount"`
	Type        EntryType `db:"type" json:"type"`
	ReferenceID *string   `db:"reference_id" json:"reference_id,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}
