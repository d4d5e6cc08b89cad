package postgres

import (
	"context"

	"github.com/flexprice/payments/internal/domain/subscription"
	ierr "github.com/flexprice/payments/internal/errors"
	"github.com/flexprice/payments/internal/logger"
	"github.com/flexprice/payments/internal/postgres"
	"github.com/flexprice/payments/internal/types"
)

type subscriptionRepository struct {
	client postgres.IClient
	logger *logger.Logger
}

func NewSubscriptionRepository(client postgres.IClient, logger *logger.Logger) subscription.Repository {
	return &subscriptionRepository{
		client: client,
		logger: logger,
	}
}

func (r *subscriptionRepository) Create(ctx context.Context, s *subscription.Subscription) error {
	query := `
		INSERT INTO subscriptions (
			id, type, customer_id, provider, provider_id, status,
			product_id, variant_id, provider_price_id, card_brand,
			card_last_four, pause_mode, pause_resumes_at, trial_ends_at,
			renews_at, ends_at, created_at, updated_at
		) VALUES (
			:id, :type, :customer_id, :provider, :provider_id, :status,
			:product_id, :variant_id, :provider_price_id, :card_brand,
			:card_last_four, :pause_mode, :pause_resumes_at, :trial_ends_at,
			:renews_at, :ends_at, :created_at, :updated_at
		)`

	if _, err := r.client.Querier(ctx).NamedExecContext(ctx, query, s); err != nil {
		if postgres.IsUniqueViolation(err) {
			return ierr.WithError(err).
				WithHint("A subscription with this provider id already exists").
				WithReportableDetails(map[string]any{
					"provider":    s.Provider,
					"provider_id": s.ProviderID,
				}).
				Mark(ierr.ErrAlreadyExists)
		}
		return ierr.WithError(err).
			WithHint("Failed to create subscription").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *subscriptionRepository) Get(ctx context.Context, id string) (*subscription.Subscription, error) {
	var s subscription.Subscription
	err := r.client.Querier(ctx).GetContext(ctx, &s,
		`SELECT * FROM subscriptions WHERE id = $1`, id)
	if err != nil {
		return nil, wrapGetErr(err, "subscription", id)
	}
	if err := r.loadItems(ctx, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *subscriptionRepository) Update(ctx context.Context, s *subscription.Subscription) error {
	query := `
		UPDATE subscriptions SET
			status = :status,
			product_id = :product_id,
			variant_id = :variant_id,
			provider_price_id = :provider_price_id,
			card_brand = :card_brand,
			card_last_four = :card_last_four,
			pause_mode = :pause_mode,
			pause_resumes_at = :pause_resumes_at,
			trial_ends_at = :trial_ends_at,
			renews_at = :renews_at,
			ends_at = :ends_at,
			updated_at = :updated_at
		WHERE id = :id`

	result, err := r.client.Querier(ctx).NamedExecContext(ctx, query, s)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to update subscription").
			Mark(ierr.ErrDatabase)
	}
	return requireRow(result, "subscription", s.ID)
}

func (r *subscriptionRepository) GetByProviderID(ctx context.Context, provider types.ProviderType, providerID string) (*subscription.Subscription, error) {
	var s subscription.Subscription
	err := r.client.Querier(ctx).GetContext(ctx, &s,
		`SELECT * FROM subscriptions WHERE provider = $1 AND provider_id = $2`,
		provider, providerID)
	if err != nil {
		return nil, wrapGetErr(err, "subscription", providerID)
	}
	if err := r.loadItems(ctx, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *subscriptionRepository) GetByCustomerAndType(ctx context.Context, customerID string, subscriptionType string) (*subscription.Subscription, error) {
	var s subscription.Subscription
	err := r.client.Querier(ctx).GetContext(ctx, &s,
		`SELECT * FROM subscriptions
		 WHERE customer_id = $1 AND type = $2
		 ORDER BY created_at DESC
		 LIMIT 1`,
		customerID, subscriptionType)
	if err != nil {
		return nil, wrapGetErr(err, "subscription", customerID)
	}
	if err := r.loadItems(ctx, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *subscriptionRepository) ListByCustomer(ctx context.Context, customerID string) ([]*subscription.Subscription, error) {
	subs := []*subscription.Subscription{}
	err := r.client.Querier(ctx).SelectContext(ctx, &subs,
		`SELECT * FROM subscriptions WHERE customer_id = $1 ORDER BY created_at DESC`,
		customerID)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list subscriptions").
			Mark(ierr.ErrDatabase)
	}
	return subs, nil
}

func (r *subscriptionRepository) ListByStatus(ctx context.Context, status types.SubscriptionStatus) ([]*subscription.Subscription, error) {
	subs := []*subscription.Subscription{}
	err := r.client.Querier(ctx).SelectContext(ctx, &subs,
		`SELECT * FROM subscriptions WHERE status = $1 ORDER BY created_at DESC`,
		status)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list subscriptions by status").
			Mark(ierr.ErrDatabase)
	}
	return subs, nil
}

func (r *subscriptionRepository) CreateItem(ctx context.Context, item *subscription.Item) error {
	query := `
		INSERT INTO subscription_items (
			id, subscription_id, provider, provider_id,
			provider_subscription_id, provider_product_id, provider_price_id,
			is_usage_based, quantity, created_at, updated_at
		) VALUES (
			:id, :subscription_id, :provider, :provider_id,
			:provider_subscription_id, :provider_product_id, :provider_price_id,
			:is_usage_based, :quantity, :created_at, :updated_at
		)`

	if _, err := r.client.Querier(ctx).NamedExecContext(ctx, query, item); err != nil {
		if postgres.IsUniqueViolation(err) {
			return ierr.WithError(err).
				WithHint("A subscription item with this provider id already exists").
				Mark(ierr.ErrAlreadyExists)
		}
		return ierr.WithError(err).
			WithHint("Failed to create subscription item").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *subscriptionRepository) ListItems(ctx context.Context, subscriptionID string) ([]*subscription.Item, error) {
	items := []*subscription.Item{}
	err := r.client.Querier(ctx).SelectContext(ctx, &items,
		`SELECT * FROM subscription_items WHERE subscription_id = $1 ORDER BY created_at`,
		subscriptionID)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list subscription items").
			Mark(ierr.ErrDatabase)
	}
	return items, nil
}

func (r *subscriptionRepository) loadItems(ctx context.Context, s *subscription.Subscription) error {
	items, err := r.ListItems(ctx, s.ID)
	if err != nil {
		return err
	}
	s.Items = items
	return nil
}
