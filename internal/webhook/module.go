package webhook

import (
	"github.com/flexprice/payments/internal/config"
	"github.com/flexprice/payments/internal/logger"
	"github.com/flexprice/payments/internal/pubsub"
	"github.com/flexprice/payments/internal/pubsub/memory"
	"github.com/flexprice/payments/internal/publisher"
	"github.com/flexprice/payments/internal/service"
	"github.com/flexprice/payments/internal/types"
	"go.uber.org/fx"
)

// Module provides all webhook pipeline dependencies
var Module = fx.Options(
	// Core dependencies
	fx.Provide(
		// PubSub for domain events and the raw webhook topic
		providePubSub,
	),

	// Pipeline components
	fx.Provide(
		// Publisher for domain events
		publisher.NewPublisher,

		// Provider handler registry
		NewRegistry,

		// Main webhook pipeline
		provideService,

		// Async consumer draining the raw webhook topic
		NewConsumer,
	),
)

func provideService(
	logger *logger.Logger,
	cfg *config.Configuration,
	registry *Registry,
	store service.WebhookStoreService,
	events publisher.EventPublisher,
	ps pubsub.PubSub,
) Service {
	return NewService(ServiceParams{
		Logger:    logger,
		Config:    cfg,
		Registry:  registry,
		Store:     store,
		Events:    events,
		RawPubSub: ps,
	})
}

func providePubSub(
	cfg *config.Configuration,
	logger *logger.Logger,
) pubsub.PubSub {
	switch cfg.Events.PubSub {
	case types.MemoryPubSub:
		return memory.NewPubSub(cfg, logger)
	}
	panic("unsupported pubsub type")
}
