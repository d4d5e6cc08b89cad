package service

import (
	"github.com/flexprice/payments/internal/config"
	"github.com/flexprice/payments/internal/domain/customer"
	"github.com/flexprice/payments/internal/domain/order"
	"github.com/flexprice/payments/internal/domain/subscription"
	"github.com/flexprice/payments/internal/domain/webhookrecord"
	"github.com/flexprice/payments/internal/logger"
	"github.com/flexprice/payments/internal/providers"
	"github.com/flexprice/payments/internal/publisher"
)

// ServiceParams holds common dependencies for services
type ServiceParams struct {
	Logger *logger.Logger
	Config *config.Configuration

	// Repositories
	CustomerRepo     customer.Repository
	OrderRepo        order.Repository
	SubscriptionRepo subscription.Repository
	WebhookRepo      webhookrecord.Repository

	// Event publisher
	EventPublisher publisher.EventPublisher

	// Provider API clients
	ProviderClients providers.ClientFactory
}

// NewServiceParams bundles the shared service dependencies for injection
func NewServiceParams(
	logger *logger.Logger,
	config *config.Configuration,
	customerRepo customer.Repository,
	orderRepo order.Repository,
	subscriptionRepo subscription.Repository,
	webhookRepo webhookrecord.Repository,
	eventPublisher publisher.EventPublisher,
	providerClients providers.ClientFactory,
) ServiceParams {
	return ServiceParams{
		Logger:           logger,
		Config:           config,
		CustomerRepo:     customerRepo,
		OrderRepo:        orderRepo,
		SubscriptionRepo: subscriptionRepo,
		WebhookRepo:      webhookRepo,
		EventPublisher:   eventPublisher,
		ProviderClients:  providerClients,
	}
}
