package webhookrecord

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/flexprice/payments/internal/types"
)

// WebhookRecord is one stored inbound webhook. Records serve two purposes,
// replay after failures and duplicate detection on redelivery.
type WebhookRecord struct {
	ID          string             `db:"id" json:"id"`
	Provider    types.ProviderType `db:"provider" json:"provider"`
	EventName   string             `db:"event_name" json:"event_name"`
	BodyHash    string             `db:"body_hash" json:"body_hash"`
	Body        []byte             `db:"body" json:"body"`
	Headers     map[string]string  `db:"-" json:"headers,omitempty"`
	ReceivedAt  time.Time          `db:"received_at" json:"received_at"`
	ProcessedAt *time.Time         `db:"processed_at" json:"processed_at,omitempty"`
}

// HashBody returns the dedup key for a raw payload. Providers redeliver the
// identical body on retries, so the hash identifies a delivery.
func HashBody(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}

// Processed reports whether handler execution completed for this record.
func (r *WebhookRecord) Processed() bool {
	return r.ProcessedAt != nil
}
