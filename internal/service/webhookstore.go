package service

import (
	"context"
	"time"

	"github.com/flexprice/payments/internal/domain/webhookrecord"
	"github.com/flexprice/payments/internal/types"
)

// WebhookStoreService persists raw webhooks and detects redeliveries. It is
// only consulted when webhook storage is enabled in configuration.
type WebhookStoreService interface {
	// Store persists an inbound webhook. It returns ErrAlreadyExists when
	// the same body was already delivered for this provider.
	Store(ctx context.Context, provider types.ProviderType, eventName string, body []byte, headers map[string]string) (*webhookrecord.WebhookRecord, error)

	// MarkProcessed stamps a record after its handler completed.
	MarkProcessed(ctx context.Context, id string) error

	// ListUnprocessed returns records whose handler never completed, for
	// replay tooling.
	ListUnprocessed(ctx context.Context, provider types.ProviderType) ([]*webhookrecord.WebhookRecord, error)
}

type webhookStoreService struct {
	ServiceParams
}

func NewWebhookStoreService(params ServiceParams) WebhookStoreService {
	return &webhookStoreService{
		ServiceParams: params,
	}
}

func (s *webhookStoreService) Store(ctx context.Context, provider types.ProviderType, eventName string, body []byte, headers map[string]string) (*webhookrecord.WebhookRecord, error) {
	record := &webhookrecord.WebhookRecord{
		ID:         types.GenerateUUIDWithPrefix(types.UUID_PREFIX_WEBHOOK_RECORD),
		Provider:   provider,
		EventName:  eventName,
		BodyHash:   webhookrecord.HashBody(body),
		Body:       body,
		Headers:    headers,
		ReceivedAt: time.Now().UTC(),
	}

	if err := s.WebhookRepo.Create(ctx, record); err != nil {
		return nil, err
	}

	s.Logger.Debugw("stored webhook",
		"webhook_id", record.ID,
		"provider", provider,
		"event_name", eventName,
	)
	return record, nil
}

func (s *webhookStoreService) MarkProcessed(ctx context.Context, id string) error {
	return s.WebhookRepo.MarkProcessed(ctx, id)
}

func (s *webhookStoreService) ListUnprocessed(ctx context.Context, provider types.ProviderType) ([]*webhookrecord.WebhookRecord, error) {
	return s.WebhookRepo.ListUnprocessed(ctx, provider)
}
