package testutil

import (
	"context"

	"github.com/flexprice/payments/internal/domain/order"
	ierr "github.com/flexprice/payments/internal/errors"
	"github.com/flexprice/payments/internal/types"
)

// InMemoryOrderStore implements order.Repository
type InMemoryOrderStore struct {
	*InMemoryStore[*order.Order]
}

func NewInMemoryOrderStore() *InMemoryOrderStore {
	return &InMemoryOrderStore{
		InMemoryStore: NewInMemoryStore[*order.Order](),
	}
}

func (s *InMemoryOrderStore) Create(ctx context.Context, o *order.Order) error {
	existing, _ := s.InMemoryStore.List(ctx, func(ctx context.Context, item *order.Order) bool {
		return item.Provider == o.Provider && item.ProviderID == o.ProviderID
	}, nil)
	if len(existing) > 0 {
		return ierr.NewError("order already exists").
			WithHint("An order with this provider id already exists").
			Mark(ierr.ErrAlreadyExists)
	}
	return s.InMemoryStore.Create(ctx, o.ID, o)
}

func (s *InMemoryOrderStore) Get(ctx context.Context, id string) (*order.Order, error) {
	return s.InMemoryStore.Get(ctx, id)
}

func (s *InMemoryOrderStore) Update(ctx context.Context, o *order.Order) error {
	return s.InMemoryStore.Update(ctx, o.ID, o)
}

func (s *InMemoryOrderStore) GetByProviderID(ctx context.Context, provider types.ProviderType, providerID string) (*order.Order, error) {
	return s.First(ctx, func(ctx context.Context, item *order.Order) bool {
		return item.Provider == provider && item.ProviderID == providerID
	}, nil)
}

func (s *InMemoryOrderStore) ListByCustomer(ctx context.Context, customerID string) ([]*order.Order, error) {
	return s.InMemoryStore.List(ctx, func(ctx context.Context, item *order.Order) bool {
		return item.CustomerID == customerID
	}, func(i, j *order.Order) bool {
		return i.OrderedAt.After(j.OrderedAt)
	})
}
