package order

import (
	"context"

	"github.com/flexprice/payments/internal/types"
)

// Repository provides access to order storage
type Repository interface {
	Create(ctx context.Context, order *Order) error
	Get(ctx context.Context, id string) (*Order, error)
	Update(ctx context.Context, order *Order) error

	// GetByProviderID looks up an order by the provider's order id.
	GetByProviderID(ctx context.Context, provider types.ProviderType, providerID string) (*Order, error)

	// ListByCustomer returns the orders of a customer, newest first.
	ListByCustomer(ctx context.Context, customerID string) ([]*Order, error)
}
