package providers

import (
	"context"
	"encoding/json"
	"time"

	"github.com/flexprice/payments/internal/domain/subscription"
	"github.com/flexprice/payments/internal/types"
)

// SubscriptionData is a provider's view of a subscription after a command or
// lookup, already translated out of the provider's wire format.
type SubscriptionData struct {
	ProviderID string
	Attributes subscription.Attributes
	// URLs carries provider-hosted pages keyed by purpose, e.g.
	// "update_payment_method".
	URLs map[string]string
	Raw  json.RawMessage
}

// CustomerData is a provider's view of a customer.
type CustomerData struct {
	ProviderID string
	Name       string
	Email      string
	PortalURL  string
}

// CheckoutRequest describes a checkout session to create at the provider.
// VariantID is the purchasable unit, a variant at Lemon Squeezy and a price
// at Stripe.
type CheckoutRequest struct {
	VariantID    string
	Name         string
	Email        string
	Country      string
	Zip          string
	TaxNumber    string
	DiscountCode string
	CustomPrice  *int64
	RedirectURL  string
	ExpiresAt    *time.Time

	// Custom is attached to the session and echoed back in webhook custom
	// data. Billable identity keys are injected by the caller.
	Custom map[string]string
}

// CheckoutData is the created checkout session.
type CheckoutData struct {
	ProviderID string
	URL        string
}

// Variant is one purchasable price of a product.
type Variant struct {
	ID        string
	ProductID string
	Name      string
	Price     int64
}

// Product is one sellable product in the provider catalog.
type Product struct {
	ID       string
	Name     string
	Status   string
	Variants []Variant
}

// SwapOptions tweaks plan swaps.
type SwapOptions struct {
	DisableProrations  bool
	InvoiceImmediately bool
}

// ApiClient is the outbound surface of one payment provider. Implementations
// translate between the provider wire format and the local domain types.
type ApiClient interface {
	Provider() types.ProviderType

	GetCustomer(ctx context.Context, customerID string) (*CustomerData, error)

	GetSubscription(ctx context.Context, providerID string) (*SubscriptionData, error)
	CancelSubscription(ctx context.Context, providerID string) (*SubscriptionData, error)
	ResumeSubscription(ctx context.Context, providerID string) (*SubscriptionData, error)
	PauseSubscription(ctx context.Context, providerID string, mode types.PauseMode, resumesAt *time.Time) (*SubscriptionData, error)
	UnpauseSubscription(ctx context.Context, providerID string) (*SubscriptionData, error)
	SwapSubscription(ctx context.Context, providerID string, productID string, variantID string, opts SwapOptions) (*SubscriptionData, error)
	AnchorSubscriptionBillingCycleOn(ctx context.Context, providerID string, date *int64) (*SubscriptionData, error)

	CreateCheckout(ctx context.Context, req *CheckoutRequest) (*CheckoutData, error)

	ListProducts(ctx context.Context) ([]*Product, error)
	GetProduct(ctx context.Context, productID string) (*Product, error)
}

// ClientFactory resolves the ApiClient of a configured provider. Services
// depend on this interface so provider packages stay swappable.
type ClientFactory interface {
	// ClientFor returns the client of one provider, building it on first use.
	ClientFor(provider types.ProviderType) (ApiClient, error)

	// ActiveClient returns the client of the configured default provider.
	ActiveClient() (ApiClient, error)
}
