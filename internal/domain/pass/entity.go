package pass

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Status represents the credential lifecycle. A credential leaves issued
// exactly once, to consumed (gate scan) or expired (cancellation or TTL).
type Status string

const (
	StatusIssued   Status = "issued"
	StatusConsumed Status = "consumed"
	StatusExpired  Status = "expired"
)

// Credential is a single-use visitor entry pass. The token is the QR
// payload: 32 bytes of crypto/rand, hex encoded, never sequential. The fee
// is charged exactly once, at issuance; consumption never touches the
// balance.
type Credential struct {
	ID          uuid.UUID    `db:"id" json:"id"`
	AccountID   uuid.UUID    `db:"account_id" json:"account_id"`
	VisitorName string       `db:"visitor_name" json:"visitor_name"`
	Purpose     string       `db:"purpose" json:"purpose,omitempty"`
	Token       string       `db:"token" json:"-"`
	Status      Status       `db:"status" json:"status"`
	FeeCharged  int64        `db:"fee_charged" json:"fee_charged"`
	IssuedAt    time.Time    `db:"issued_at" json:"issued_at"`
	ConsumedAt  sql.NullTime `db:"consumed_at" json:"consumed_at,omitempty"`
	ExpiresAt   sql.NullTime `db:"expires_at" json:"expires_at,omitempty"`
}

// IsActive reports whether the credential can still be redeemed
func (c *Credential) IsActive(now time.Time) bool {
	if c.Status != StatusIssued {
		return false
	}
	if c.ExpiresAt.Valid && !c.ExpiresAt.Time.After(now) {
		return false
	}
	return true
}
