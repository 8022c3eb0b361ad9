package notification

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Type represents notification type
type Type string

const (
	TypeTopUpSubmitted Type = "topup_submitted" // Admins: new top-up awaiting verification
	TypeTopUpApproved  Type = "topup_approved"  // Client: top-up credited
	TypeTopUpRejected  Type = "topup_rejected"  // Client: top-up declined
	TypePassIssued     Type = "pass_issued"     // Client: visitor pass created
	TypePassConsumed   Type = "pass_consumed"   // Client: visitor entered at the gate
	TypePassExpired    Type = "pass_expired"    // Client: pass lapsed unused
)

// Notification represents an in-app notification
type Notification struct {
	ID        uuid.UUID       `db:"id" json:"id"`
	AccountID uuid.UUID       `db:"account_id" json:"account_id"`
	Type      Type            `db:"type" json:"type"`
	Title     string          `db:"title" json:"title"`
	Body      sql.NullString  `db:"body" json:"body,omitempty"`
	Data      json.RawMessage `db:"data" json:"data,omitempty"`
	IsRead    bool            `db:"is_read" json:"is_read"`
	ReadAt    sql.NullTime    `db:"read_at" json:"read_at,omitempty"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
}

// EventData links a notification to the entity that produced it
type EventData struct {
	TopUpID *uuid.UUID `json:"topup_id,omitempty"`
	PassID  *uuid.UUID `json:"pass_id,omitempty"`
	Amount  *int64     `json:"amount,omitempty"`
}

// SetData encodes data to JSON
func (n *Notification) SetData(data *EventData) {
	if data != nil {
		n.Data, _ = json.Marshal(data)
	}
}

// GetData decodes data from JSON
func (n *Notification) GetData() *EventData {
	if n.Data == nil {
		return &EventData{}
	}
	var data EventData
	_ = json.Unmarshal(n.Data, &data)
	return &data
}
