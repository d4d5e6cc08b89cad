package factory

import (
	"sync"

	"github.com/flexprice/payments/internal/config"
	ierr "github.com/flexprice/payments/internal/errors"
	"github.com/flexprice/payments/internal/httpclient"
	"github.com/flexprice/payments/internal/logger"
	"github.com/flexprice/payments/internal/providers"
	"github.com/flexprice/payments/internal/providers/lemonsqueezy"
	"github.com/flexprice/payments/internal/providers/stripe"
	"github.com/flexprice/payments/internal/types"
)

// Factory builds and caches provider API clients from configuration.
type Factory struct {
	config     *config.Configuration
	logger     *logger.Logger
	httpClient httpclient.Client

	mu      sync.Mutex
	clients map[types.ProviderType]providers.ApiClient
}

// NewFactory creates a provider client factory
func NewFactory(
	cfg *config.Configuration,
	logger *logger.Logger,
	httpClient httpclient.Client,
) providers.ClientFactory {
	return &Factory{
		config:     cfg,
		logger:     logger,
		httpClient: httpClient,
		clients:    make(map[types.ProviderType]providers.ApiClient),
	}
}

// ClientFor returns the client of one provider, building it on first use.
func (f *Factory) ClientFor(provider types.ProviderType) (providers.ApiClient, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if client, ok := f.clients[provider]; ok {
		return client, nil
	}

	pc, ok := f.config.Payments.Providers[provider.String()]
	if !ok {
		return nil, ierr.NewError("provider has no configuration").
			WithHintf("Provider %s is not configured", provider).
			Mark(ierr.ErrNotFound)
	}

	var (
		client providers.ApiClient
		err    error
	)
	switch provider {
	case types.ProviderLemonSqueezy:
		client, err = lemonsqueezy.NewClient(f.httpClient, pc)
	case types.ProviderStripe:
		client, err = stripe.NewClient(pc)
	default:
		return nil, ierr.NewError("unsupported provider").
			WithHintf("Provider %s has no API client", provider).
			WithReportableDetails(map[string]any{
				"provider":          provider,
				"allowed_providers": types.AllowedProviders,
			}).
			Mark(ierr.ErrValidation)
	}
	if err != nil {
		return nil, err
	}

	f.clients[provider] = client
	return client, nil
}

// ActiveClient returns the client of the configured default provider.
func (f *Factory) ActiveClient() (providers.ApiClient, error) {
	if !f.config.ProviderConfigured() {
		return nil, ierr.NewError("no active provider").
			WithHint("Configure an active payment provider").
			Mark(ierr.ErrInvalidOperation)
	}
	return f.ClientFor(f.config.Payments.Provider)
}
