package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/flexprice/payments/internal/domain/customer"
	ierr "github.com/flexprice/payments/internal/errors"
	"github.com/flexprice/payments/internal/logger"
	"github.com/flexprice/payments/internal/postgres"
	"github.com/flexprice/payments/internal/types"
)

type customerRepository struct {
	client postgres.IClient
	logger *logger.Logger
}

func NewCustomerRepository(client postgres.IClient, logger *logger.Logger) customer.Repository {
	return &customerRepository{
		client: client,
		logger: logger,
	}
}

func (r *customerRepository) Create(ctx context.Context, c *customer.Customer) error {
	query := `
		INSERT INTO customers (
			id, billable_type, billable_id, provider, provider_id,
			name, email, trial_ends_at, created_at, updated_at
		) VALUES (
			:id, :billable_type, :billable_id, :provider, :provider_id,
			:name, :email, :trial_ends_at, :created_at, :updated_at
		)`

	if _, err := r.client.Querier(ctx).NamedExecContext(ctx, query, c); err != nil {
		if postgres.IsUniqueViolation(err) {
			return ierr.WithError(err).
				WithHint("A customer already exists for this billable").
				WithReportableDetails(map[string]any{
					"billable_type": c.BillableType,
					"billable_id":   c.BillableID,
					"provider":      c.Provider,
				}).
				Mark(ierr.ErrAlreadyExists)
		}
		return ierr.WithError(err).
			WithHint("Failed to create customer").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *customerRepository) Get(ctx context.Context, id string) (*customer.Customer, error) {
	var c customer.Customer
	err := r.client.Querier(ctx).GetContext(ctx, &c,
		`SELECT * FROM customers WHERE id = $1`, id)
	if err != nil {
		return nil, wrapGetErr(err, "customer", id)
	}
	return &c, nil
}

func (r *customerRepository) Update(ctx context.Context, c *customer.Customer) error {
	query := `
		UPDATE customers SET
			provider_id = :provider_id,
			name = :name,
			email = :email,
			trial_ends_at = :trial_ends_at,
			updated_at = :updated_at
		WHERE id = :id`

	result, err := r.client.Querier(ctx).NamedExecContext(ctx, query, c)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to update customer").
			Mark(ierr.ErrDatabase)
	}
	return requireRow(result, "customer", c.ID)
}

func (r *customerRepository) Delete(ctx context.Context, id string) error {
	result, err := r.client.Querier(ctx).ExecContext(ctx,
		`DELETE FROM customers WHERE id = $1`, id)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to delete customer").
			Mark(ierr.ErrDatabase)
	}
	return requireRow(result, "customer", id)
}

func (r *customerRepository) GetByBillable(ctx context.Context, ref types.BillableRef, provider types.ProviderType) (*customer.Customer, error) {
	var c customer.Customer
	err := r.client.Querier(ctx).GetContext(ctx, &c,
		`SELECT * FROM customers
		 WHERE billable_type = $1 AND billable_id = $2 AND provider = $3`,
		ref.Type, ref.ID, provider)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ierr.NewError("customer not found").
				WithHintf("No customer for %s %s", ref.Type, ref.ID).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to look up customer by billable").
			Mark(ierr.ErrDatabase)
	}
	return &c, nil
}

func (r *customerRepository) GetByProviderID(ctx context.Context, provider types.ProviderType, providerID string) (*customer.Customer, error) {
	var c customer.Customer
	err := r.client.Querier(ctx).GetContext(ctx, &c,
		`SELECT * FROM customers WHERE provider = $1 AND provider_id = $2`,
		provider, providerID)
	if err != nil {
		return nil, wrapGetErr(err, "customer", providerID)
	}
	return &c, nil
}

func (r *customerRepository) List(ctx context.Context) ([]*customer.Customer, error) {
	customers := []*customer.Customer{}
	err := r.client.Querier(ctx).SelectContext(ctx, &customers,
		`SELECT * FROM customers ORDER BY created_at DESC`)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list customers").
			Mark(ierr.ErrDatabase)
	}
	return customers, nil
}
