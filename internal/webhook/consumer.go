package webhook

import (
	"context"
	"encoding/json"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/flexprice/payments/internal/config"
	ierr "github.com/flexprice/payments/internal/errors"
	"github.com/flexprice/payments/internal/logger"
	"github.com/flexprice/payments/internal/pubsub"
	"github.com/flexprice/payments/internal/pubsub/router"
	"github.com/flexprice/payments/internal/service"
)

// Consumer drains the raw webhook topic when async handling is enabled.
// Handler outcomes that are business-level (unknown event, bad custom data)
// ack the message; infrastructure errors nack and retry via the router.
type Consumer struct {
	logger   *logger.Logger
	config   *config.Configuration
	registry *Registry
	store    service.WebhookStoreService
}

func NewConsumer(
	logger *logger.Logger,
	cfg *config.Configuration,
	registry *Registry,
	store service.WebhookStoreService,
) *Consumer {
	return &Consumer{
		logger:   logger,
		config:   cfg,
		registry: registry,
		store:    store,
	}
}

// RegisterHandler attaches the consumer to the message router.
func (c *Consumer) RegisterHandler(r *router.Router, subscriber pubsub.Subscriber) {
	r.AddNoPublishHandler(
		"webhook_consumer",
		c.config.Webhooks.Topic,
		subscriber,
		c.processMessage,
	)
}

func (c *Consumer) processMessage(msg *message.Message) error {
	var envelope rawEnvelope
	if err := json.Unmarshal(msg.Payload, &envelope); err != nil {
		c.logger.Errorw("dropping malformed raw webhook message",
			"message_uuid", msg.UUID,
			"error", err,
		)
		return nil
	}

	ctx := context.Background()

	handler, ok := c.registry.HandlerFor(envelope.Provider)
	if !ok {
		c.logger.Warnw("no handler for stored webhook",
			"provider", envelope.Provider,
			"record_id", envelope.RecordID,
		)
		return nil
	}

	if err := handler.Handle(ctx, envelope.Body); err != nil {
		if businessOutcome(err) {
			c.logger.Warnw("stored webhook not handleable",
				"provider", envelope.Provider,
				"record_id", envelope.RecordID,
				"error", err,
			)
			return nil
		}
		return err
	}

	if envelope.RecordID != "" {
		if err := c.store.MarkProcessed(ctx, envelope.RecordID); err != nil {
			return err
		}
	}
	return nil
}

// businessOutcome reports whether the error is a terminal business-level
// outcome that retrying can never fix.
func businessOutcome(err error) bool {
	return ierr.IsInvalidEventName(err) ||
		ierr.IsInvalidCustomData(err) ||
		ierr.IsNotImplemented(err)
}
