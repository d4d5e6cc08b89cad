package webhook

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/flexprice/payments/internal/config"
	ierr "github.com/flexprice/payments/internal/errors"
	"github.com/flexprice/payments/internal/logger"
	"github.com/flexprice/payments/internal/service"
	"github.com/flexprice/payments/internal/testutil"
	"github.com/flexprice/payments/internal/types"
	"github.com/stretchr/testify/suite"
)

type ConsumerSuite struct {
	suite.Suite
	ctx         context.Context
	handler     *fakeHandler
	webhookRepo *testutil.InMemoryWebhookRecordStore
	store       service.WebhookStoreService
	consumer    *Consumer
}

func TestConsumer(t *testing.T) {
	suite.Run(t, new(ConsumerSuite))
}

func (s *ConsumerSuite) SetupTest() {
	s.ctx = context.Background()
	cfg := config.GetDefaultConfig()
	cfg.Webhooks.Async = true
	log := logger.NewNopLogger()

	s.handler = &fakeHandler{provider: types.ProviderLemonSqueezy}
	registry := NewRegistry()
	s.Require().NoError(registry.Register(s.handler))

	s.webhookRepo = testutil.NewInMemoryWebhookRecordStore()
	s.store = service.NewWebhookStoreService(service.ServiceParams{
		Logger:      log,
		Config:      cfg,
		WebhookRepo: s.webhookRepo,
	})

	s.consumer = NewConsumer(log, cfg, registry, s.store)
}

func (s *ConsumerSuite) envelopeMessage(provider types.ProviderType, recordID string, body string) *message.Message {
	payload, err := json.Marshal(rawEnvelope{
		Provider: provider,
		RecordID: recordID,
		Body:     json.RawMessage(body),
	})
	s.Require().NoError(err)
	return message.NewMessage(types.GenerateUUID(), payload)
}

func (s *ConsumerSuite) TestProcessMarksRecord() {
	body := `{"meta":{"event_name":"order_created"}}`
	record, err := s.store.Store(s.ctx, types.ProviderLemonSqueezy, "order_created", []byte(body), nil)
	s.Require().NoError(err)

	err = s.consumer.processMessage(s.envelopeMessage(types.ProviderLemonSqueezy, record.ID, body))
	s.Require().NoError(err)
	s.Equal(1, s.handler.calls)

	unprocessed, err := s.webhookRepo.ListUnprocessed(s.ctx, types.ProviderLemonSqueezy)
	s.Require().NoError(err)
	s.Empty(unprocessed)
}

func (s *ConsumerSuite) TestBusinessOutcomesAck() {
	s.handler.err = ierr.NewError("no handler for event").Mark(ierr.ErrNotImplemented)

	err := s.consumer.processMessage(s.envelopeMessage(types.ProviderLemonSqueezy, "", `{"meta":{}}`))
	s.NoError(err, "terminal outcomes must ack instead of retrying forever")
}

func (s *ConsumerSuite) TestInfrastructureErrorsNack() {
	s.handler.err = ierr.NewError("db down").Mark(ierr.ErrDatabase)

	err := s.consumer.processMessage(s.envelopeMessage(types.ProviderLemonSqueezy, "", `{"meta":{}}`))
	s.Error(err, "transient failures must surface so the router retries")
}

func (s *ConsumerSuite) TestMalformedEnvelopeIsDropped() {
	err := s.consumer.processMessage(message.NewMessage(types.GenerateUUID(), []byte("not json")))
	s.NoError(err)
	s.Equal(0, s.handler.calls)
}

func (s *ConsumerSuite) TestUnknownProviderIsDropped() {
	err := s.consumer.processMessage(s.envelopeMessage(types.ProviderStripe, "", `{"type":"x"}`))
	s.NoError(err)
}
