package subscription

import (
	"context"

	"github.com/flexprice/payments/internal/types"
)

// Repository provides access to subscription storage
type Repository interface {
	Create(ctx context.Context, subscription *Subscription) error
	Get(ctx context.Context, id string) (*Subscription, error)
	Update(ctx context.Context, subscription *Subscription) error

	// GetByProviderID looks up a subscription by the provider's id.
	GetByProviderID(ctx context.Context, provider types.ProviderType, providerID string) (*Subscription, error)

	// GetByCustomerAndType returns the newest subscription of a given type
	// for a customer.
	GetByCustomerAndType(ctx context.Context, customerID string, subscriptionType string) (*Subscription, error)

	// ListByCustomer returns the subscriptions of a customer, newest first.
	ListByCustomer(ctx context.Context, customerID string) ([]*Subscription, error)

	// ListByStatus returns subscriptions in the given status.
	ListByStatus(ctx context.Context, status types.SubscriptionStatus) ([]*Subscription, error)

	// CreateItem stores a subscription item.
	CreateItem(ctx context.Context, item *Item) error

	// ListItems returns the items of a subscription.
	ListItems(ctx context.Context, subscriptionID string) ([]*Item, error)
}
