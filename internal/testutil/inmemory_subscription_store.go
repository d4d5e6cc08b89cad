package testutil

import (
	"context"

	"github.com/flexprice/payments/internal/domain/subscription"
	ierr "github.com/flexprice/payments/internal/errors"
	"github.com/flexprice/payments/internal/types"
)

// InMemorySubscriptionStore implements subscription.Repository
type InMemorySubscriptionStore struct {
	*InMemoryStore[*subscription.Subscription]
	items *InMemoryStore[*subscription.Item]
}

func NewInMemorySubscriptionStore() *InMemorySubscriptionStore {
	return &InMemorySubscriptionStore{
		InMemoryStore: NewInMemoryStore[*subscription.Subscription](),
		items:         NewInMemoryStore[*subscription.Item](),
	}
}

func (s *InMemorySubscriptionStore) Create(ctx context.Context, sub *subscription.Subscription) error {
	existing, _ := s.InMemoryStore.List(ctx, func(ctx context.Context, item *subscription.Subscription) bool {
		return item.Provider == sub.Provider && item.ProviderID == sub.ProviderID
	}, nil)
	if len(existing) > 0 {
		return ierr.NewError("subscription already exists").
			WithHint("A subscription with this provider id already exists").
			Mark(ierr.ErrAlreadyExists)
	}
	return s.InMemoryStore.Create(ctx, sub.ID, sub)
}

func (s *InMemorySubscriptionStore) Get(ctx context.Context, id string) (*subscription.Subscription, error) {
	return s.InMemoryStore.Get(ctx, id)
}

func (s *InMemorySubscriptionStore) Update(ctx context.Context, sub *subscription.Subscription) error {
	return s.InMemoryStore.Update(ctx, sub.ID, sub)
}

func (s *InMemorySubscriptionStore) GetByProviderID(ctx context.Context, provider types.ProviderType, providerID string) (*subscription.Subscription, error) {
	return s.First(ctx, func(ctx context.Context, item *subscription.Subscription) bool {
		return item.Provider == provider && item.ProviderID == providerID
	}, nil)
}

func (s *InMemorySubscriptionStore) GetByCustomerAndType(ctx context.Context, customerID string, subscriptionType string) (*subscription.Subscription, error) {
	return s.First(ctx, func(ctx context.Context, item *subscription.Subscription) bool {
		return item.CustomerID == customerID && item.Type == subscriptionType
	}, func(i, j *subscription.Subscription) bool {
		return i.CreatedAt.After(j.CreatedAt)
	})
}

func (s *InMemorySubscriptionStore) ListByCustomer(ctx context.Context, customerID string) ([]*subscription.Subscription, error) {
	return s.InMemoryStore.List(ctx, func(ctx context.Context, item *subscription.Subscription) bool {
		return item.CustomerID == customerID
	}, func(i, j *subscription.Subscription) bool {
		return i.CreatedAt.After(j.CreatedAt)
	})
}

func (s *InMemorySubscriptionStore) ListByStatus(ctx context.Context, status types.SubscriptionStatus) ([]*subscription.Subscription, error) {
	return s.InMemoryStore.List(ctx, func(ctx context.Context, item *subscription.Subscription) bool {
		return item.Status == status
	}, func(i, j *subscription.Subscription) bool {
		return i.CreatedAt.After(j.CreatedAt)
	})
}

func (s *InMemorySubscriptionStore) CreateItem(ctx context.Context, item *subscription.Item) error {
	return s.items.Create(ctx, item.ID, item)
}

func (s *InMemorySubscriptionStore) ListItems(ctx context.Context, subscriptionID string) ([]*subscription.Item, error) {
	return s.items.List(ctx, func(ctx context.Context, item *subscription.Item) bool {
		return item.SubscriptionID == subscriptionID
	}, func(i, j *subscription.Item) bool {
		return i.CreatedAt.Before(j.CreatedAt)
	})
}
