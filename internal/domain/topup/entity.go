package topup

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Method represents the payment channel used for the top-up
type Method string

const (
	MethodGCash   Method = "gcash"
	MethodPayMaya Method = "paymaya"
	MethodBank    Method = "bank"
)

// Status represents the request lifecycle. A request leaves pending exactly
// once and is immutable afterwards.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Request is a client-submitted top-up awaiting admin verification. The
// proof reference points at an uploaded payment receipt image.
type Request struct {
	ID        uuid.UUID      `db:"id" json:"id"`
	AccountID uuid.UUID      `db:"account_id" json:"account_id"`
	Amount    int64          `db:"amount" json:"amount"`
	ProofRef  string         `db:"proof_ref" json:"proof_ref"`
	Method    Method         `db:"method" json:"method"`
	Status    Status         `db:"status" json:"status"`
	AdminNote sql.NullString `db:"admin_note" json:"admin_note,omitempty"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
	DecidedAt sql.NullTime   `db:"decided_at" json:"decided_at,omitempty"`
	DecidedBy uuid.NullUUID  `db:"decided_by" json:"decided_by,omitempty"`
}

// IsTerminal reports whether the request has been decided
func (r *Request) IsTerminal() bool {
	return r.Status != StatusPending
}
