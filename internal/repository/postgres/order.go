package postgres

import (
	"context"

	"github.com/flexprice/payments/internal/domain/order"
	ierr "github.com/flexprice/payments/internal/errors"
	"github.com/flexprice/payments/internal/logger"
	"github.com/flexprice/payments/internal/postgres"
	"github.com/flexprice/payments/internal/types"
)

type orderRepository struct {
	client postgres.IClient
	logger *logger.Logger
}

func NewOrderRepository(client postgres.IClient, logger *logger.Logger) order.Repository {
	return &orderRepository{
		client: client,
		logger: logger,
	}
}

func (r *orderRepository) Create(ctx context.Context, o *order.Order) error {
	query := `
		INSERT INTO orders (
			id, customer_id, provider, provider_id, identifier, order_number,
			product_id, variant_id, status, currency, subtotal, discount, tax,
			total, tax_name, tax_rate, tax_inclusive, refunded_amount,
			refunded_at, receipt, ordered_at, created_at, updated_at
		) VALUES (
			:id, :customer_id, :provider, :provider_id, :identifier, :order_number,
			:product_id, :variant_id, :status, :currency, :subtotal, :discount, :tax,
			:total, :tax_name, :tax_rate, :tax_inclusive, :refunded_amount,
			:refunded_at, :receipt, :ordered_at, :created_at, :updated_at
		)`

	if _, err := r.client.Querier(ctx).NamedExecContext(ctx, query, o); err != nil {
		if postgres.IsUniqueViolation(err) {
			return ierr.WithError(err).
				WithHint("An order with this provider id already exists").
				WithReportableDetails(map[string]any{
					"provider":    o.Provider,
					"provider_id": o.ProviderID,
				}).
				Mark(ierr.ErrAlreadyExists)
		}
		return ierr.WithError(err).
			WithHint("Failed to create order").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *orderRepository) Get(ctx context.Context, id string) (*order.Order, error) {
	var o order.Order
	err := r.client.Querier(ctx).GetContext(ctx, &o,
		`SELECT * FROM orders WHERE id = $1`, id)
	if err != nil {
		return nil, wrapGetErr(err, "order", id)
	}
	return &o, nil
}

func (r *orderRepository) Update(ctx context.Context, o *order.Order) error {
	query := `
		UPDATE orders SET
			status = :status,
			currency = :currency,
			subtotal = :subtotal,
			discount = :discount,
			tax = :tax,
			total = :total,
			tax_name = :tax_name,
			tax_rate = :tax_rate,
			tax_inclusive = :tax_inclusive,
			refunded_amount = :refunded_amount,
			refunded_at = :refunded_at,
			receipt = :receipt,
			updated_at = :updated_at
		WHERE id = :id`

	result, err := r.client.Querier(ctx).NamedExecContext(ctx, query, o)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to update order").
			Mark(ierr.ErrDatabase)
	}
	return requireRow(result, "order", o.ID)
}

func (r *orderRepository) GetByProviderID(ctx context.Context, provider types.ProviderType, providerID string) (*order.Order, error) {
	var o order.Order
	err := r.client.Querier(ctx).GetContext(ctx, &o,
		`SELECT * FROM orders WHERE provider = $1 AND provider_id = $2`,
		provider, providerID)
	if err != nil {
		return nil, wrapGetErr(err, "order", providerID)
	}
	return &o, nil
}

func (r *orderRepository) ListByCustomer(ctx context.Context, customerID string) ([]*order.Order, error) {
	orders := []*order.Order{}
	err := r.client.Querier(ctx).SelectContext(ctx, &orders,
		`SELECT * FROM orders WHERE customer_id = $1 ORDER BY ordered_at DESC`,
		customerID)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list orders").
			Mark(ierr.ErrDatabase)
	}
	return orders, nil
}
