package testutil

import (
	"context"
	"time"

	"github.com/flexprice/payments/internal/domain/webhookrecord"
	ierr "github.com/flexprice/payments/internal/errors"
	"github.com/flexprice/payments/internal/types"
)

// InMemoryWebhookRecordStore implements webhookrecord.Repository
type InMemoryWebhookRecordStore struct {
	*InMemoryStore[*webhookrecord.WebhookRecord]
}

func NewInMemoryWebhookRecordStore() *InMemoryWebhookRecordStore {
	return &InMemoryWebhookRecordStore{
		InMemoryStore: NewInMemoryStore[*webhookrecord.WebhookRecord](),
	}
}

func (s *InMemoryWebhookRecordStore) Create(ctx context.Context, record *webhookrecord.WebhookRecord) error {
	existing, _ := s.InMemoryStore.List(ctx, func(ctx context.Context, item *webhookrecord.WebhookRecord) bool {
		return item.Provider == record.Provider && item.BodyHash == record.BodyHash
	}, nil)
	if len(existing) > 0 {
		return ierr.NewError("webhook already stored").
			WithHint("This webhook body was already delivered").
			Mark(ierr.ErrAlreadyExists)
	}
	return s.InMemoryStore.Create(ctx, record.ID, record)
}

func (s *InMemoryWebhookRecordStore) Get(ctx context.Context, id string) (*webhookrecord.WebhookRecord, error) {
	return s.InMemoryStore.Get(ctx, id)
}

func (s *InMemoryWebhookRecordStore) GetByBodyHash(ctx context.Context, provider types.ProviderType, bodyHash string) (*webhookrecord.WebhookRecord, error) {
	return s.First(ctx, func(ctx context.Context, item *webhookrecord.WebhookRecord) bool {
		return item.Provider == provider && item.BodyHash == bodyHash
	}, nil)
}

func (s *InMemoryWebhookRecordStore) MarkProcessed(ctx context.Context, id string) error {
	record, err := s.InMemoryStore.Get(ctx, id)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	record.ProcessedAt = &now
	return s.InMemoryStore.Update(ctx, id, record)
}

func (s *InMemoryWebhookRecordStore) ListUnprocessed(ctx context.Context, provider types.ProviderType) ([]*webhookrecord.WebhookRecord, error) {
	return s.InMemoryStore.List(ctx, func(ctx context.Context, item *webhookrecord.WebhookRecord) bool {
		return item.Provider == provider && item.ProcessedAt == nil
	}, func(i, j *webhookrecord.WebhookRecord) bool {
		return i.ReceivedAt.Before(j.ReceivedAt)
	})
}
