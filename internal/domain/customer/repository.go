package customer

import (
	"context"

	"github.com/flexprice/payments/internal/types"
)

// Repository provides access to customer storage
type Repository interface {
	Create(ctx context.Context, customer *Customer) error
	Get(ctx context.Context, id string) (*Customer, error)
	Update(ctx context.Context, customer *Customer) error
	Delete(ctx context.Context, id string) error

	// GetByBillable looks up the customer row of a billable entity for one
	// provider. A billable has at most one customer row per provider.
	GetByBillable(ctx context.Context, ref types.BillableRef, provider types.ProviderType) (*Customer, error)

	// GetByProviderID looks up a customer by the id the provider assigned.
	GetByProviderID(ctx context.Context, provider types.ProviderType, providerID string) (*Customer, error)

	List(ctx context.Context) ([]*Customer, error)
}
