package testutil

import (
	"context"

	"github.com/flexprice/payments/internal/domain/customer"
	ierr "github.com/flexprice/payments/internal/errors"
	"github.com/flexprice/payments/internal/types"
)

// InMemoryCustomerStore implements customer.Repository
type InMemoryCustomerStore struct {
	*InMemoryStore[*customer.Customer]
}

func NewInMemoryCustomerStore() *InMemoryCustomerStore {
	return &InMemoryCustomerStore{
		InMemoryStore: NewInMemoryStore[*customer.Customer](),
	}
}

func (s *InMemoryCustomerStore) Create(ctx context.Context, c *customer.Customer) error {
	// Enforce the billable uniqueness constraint of the real table.
	existing, _ := s.InMemoryStore.List(ctx, func(ctx context.Context, item *customer.Customer) bool {
		return item.Provider == c.Provider &&
			item.BillableType == c.BillableType &&
			item.BillableID == c.BillableID &&
			c.BillableID != ""
	}, nil)
	if len(existing) > 0 {
		return ierr.NewError("customer already exists").
			WithHint("A customer already exists for this billable").
			Mark(ierr.ErrAlreadyExists)
	}
	return s.InMemoryStore.Create(ctx, c.ID, c)
}

func (s *InMemoryCustomerStore) Get(ctx context.Context, id string) (*customer.Customer, error) {
	return s.InMemoryStore.Get(ctx, id)
}

func (s *InMemoryCustomerStore) Update(ctx context.Context, c *customer.Customer) error {
	return s.InMemoryStore.Update(ctx, c.ID, c)
}

func (s *InMemoryCustomerStore) Delete(ctx context.Context, id string) error {
	return s.InMemoryStore.Delete(ctx, id)
}

func (s *InMemoryCustomerStore) GetByBillable(ctx context.Context, ref types.BillableRef, provider types.ProviderType) (*customer.Customer, error) {
	return s.First(ctx, func(ctx context.Context, item *customer.Customer) bool {
		return item.Provider == provider &&
			item.BillableType == ref.Type &&
			item.BillableID == ref.ID
	}, nil)
}

func (s *InMemoryCustomerStore) GetByProviderID(ctx context.Context, provider types.ProviderType, providerID string) (*customer.Customer, error) {
	return s.First(ctx, func(ctx context.Context, item *customer.Customer) bool {
		return item.Provider == provider &&
			item.ProviderID != nil &&
			*item.ProviderID == providerID
	}, nil)
}

func (s *InMemoryCustomerStore) List(ctx context.Context) ([]*customer.Customer, error) {
	return s.InMemoryStore.List(ctx, nil, func(i, j *customer.Customer) bool {
		return i.CreatedAt.After(j.CreatedAt)
	})
}
