package webhookrecord

import (
	"context"

	"github.com/flexprice/payments/internal/types"
)

// Repository provides access to stored webhooks
type Repository interface {
	// Create stores a record. It returns ErrAlreadyExists when a record with
	// the same provider and body hash is already stored.
	Create(ctx context.Context, record *WebhookRecord) error

	Get(ctx context.Context, id string) (*WebhookRecord, error)

	// GetByBodyHash looks up a record by its dedup key.
	GetByBodyHash(ctx context.Context, provider types.ProviderType, bodyHash string) (*WebhookRecord, error)

	// MarkProcessed stamps the record after its handler completed.
	MarkProcessed(ctx context.Context, id string) error

	// ListUnprocessed returns stored records whose handler never completed.
	ListUnprocessed(ctx context.Context, provider types.ProviderType) ([]*WebhookRecord, error)
}
