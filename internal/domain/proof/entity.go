package proof

import (
	"time"

	"github.com/google/uuid"
)

// Proof represents an uploaded payment receipt image. Its URL is what a
// top-up submission carries as the proof reference.
type Proof struct {
	ID         uuid.UUID `db:"id" json:"id"`
	AccountID  uuid.UUID `db:"account_id" json:"account_id"`
	Key        string    `db:"key" json:"-"`
	URL        string    `db:"url" json:"url"`
	MimeType   string    `db:"mime_type" json:"mime_type"`
	SizeBytes  int64     `db:"size_bytes" json:"size_bytes"`
	Width      int       `db:"width" json:"width"`
	Height     int       `db:"height" json:"height"`
	UploadedAt time.Time `db:"uploaded_at" json:"uploaded_at"`
}
