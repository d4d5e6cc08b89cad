package service

import (
	"context"
	"time"

	"github.com/flexprice/payments/internal/providers"
	"github.com/flexprice/payments/internal/types"
)

// fakeApiClient is a scriptable providers.ApiClient for service tests. Every
// call records its inputs and returns the configured canned responses.
type fakeApiClient struct {
	provider types.ProviderType

	customer     *providers.CustomerData
	subscription *providers.SubscriptionData
	checkout     *providers.CheckoutData
	products     []*providers.Product
	err          error

	lastCheckoutReq *providers.CheckoutRequest
	lastPauseMode   types.PauseMode
	lastSwapOpts    providers.SwapOptions
	lastAnchorDate  *int64
	anchorCalled    bool
	calls           []string
}

var _ providers.ApiClient = (*fakeApiClient)(nil)

func (c *fakeApiClient) record(name string) {
	c.calls = append(c.calls, name)
}

func (c *fakeApiClient) Provider() types.ProviderType {
	return c.provider
}

func (c *fakeApiClient) GetCustomer(ctx context.Context, customerID string) (*providers.CustomerData, error) {
	c.record("GetCustomer")
	return c.customer, c.err
}

func (c *fakeApiClient) GetSubscription(ctx context.Context, providerID string) (*providers.SubscriptionData, error) {
	c.record("GetSubscription")
	return c.subscription, c.err
}

func (c *fakeApiClient) CancelSubscription(ctx context.Context, providerID string) (*providers.SubscriptionData, error) {
	c.record("CancelSubscription")
	return c.subscription, c.err
}

func (c *fakeApiClient) ResumeSubscription(ctx context.Context, providerID string) (*providers.SubscriptionData, error) {
	c.record("ResumeSubscription")
	return c.subscription, c.err
}

func (c *fakeApiClient) PauseSubscription(ctx context.Context, providerID string, mode types.PauseMode, resumesAt *time.Time) (*providers.SubscriptionData, error) {
	c.record("PauseSubscription")
	c.lastPauseMode = mode
	return c.subscription, c.err
}

func (c *fakeApiClient) UnpauseSubscription(ctx context.Context, providerID string) (*providers.SubscriptionData, error) {
	c.record("UnpauseSubscription")
	return c.subscription, c.err
}

func (c *fakeApiClient) SwapSubscription(ctx context.Context, providerID string, productID string, variantID string, opts providers.SwapOptions) (*providers.SubscriptionData, error) {
	c.record("SwapSubscription")
	c.lastSwapOpts = opts
	return c.subscription, c.err
}

func (c *fakeApiClient) AnchorSubscriptionBillingCycleOn(ctx context.Context, providerID string, date *int64) (*providers.SubscriptionData, error) {
	c.record("AnchorSubscriptionBillingCycleOn")
	c.anchorCalled = true
	c.lastAnchorDate = date
	return c.subscription, c.err
}

func (c *fakeApiClient) CreateCheckout(ctx context.Context, req *providers.CheckoutRequest) (*providers.CheckoutData, error) {
	c.record("CreateCheckout")
	c.lastCheckoutReq = req
	return c.checkout, c.err
}

func (c *fakeApiClient) ListProducts(ctx context.Context) ([]*providers.Product, error) {
	c.record("ListProducts")
	return c.products, c.err
}

func (c *fakeApiClient) GetProduct(ctx context.Context, productID string) (*providers.Product, error) {
	c.record("GetProduct")
	for _, p := range c.products {
		if p.ID == productID {
			return p, nil
		}
	}
	return nil, c.err
}

// fakeClientFactory hands out one fakeApiClient for every provider.
type fakeClientFactory struct {
	client *fakeApiClient
	err    error
}

var _ providers.ClientFactory = (*fakeClientFactory)(nil)

func (f *fakeClientFactory) ClientFor(provider types.ProviderType) (providers.ApiClient, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.client, nil
}

func (f *fakeClientFactory) ActiveClient() (providers.ApiClient, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.client, nil
}
