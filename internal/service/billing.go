package service

import (
	"context"
	"time"

	"github.com/flexprice/payments/internal/domain/customer"
	"github.com/flexprice/payments/internal/domain/order"
	"github.com/flexprice/payments/internal/domain/subscription"
	ierr "github.com/flexprice/payments/internal/errors"
	"github.com/flexprice/payments/internal/providers"
	"github.com/flexprice/payments/internal/types"
	"github.com/samber/lo"
)

// reservedCustomKeys are stamped onto checkout custom data by this service
// and must not be supplied by callers.
var reservedCustomKeys = []string{"billable_id", "billable_type", "subscription_type"}

// CreateCustomerParams are the optional fields of an eagerly created
// customer row.
type CreateCustomerParams struct {
	Name  string
	Email string

	// TrialEndsAt starts a local trial before any provider subscription
	// exists.
	TrialEndsAt *time.Time
}

// CheckoutParams describes a checkout to start for a billable entity.
type CheckoutParams struct {
	VariantID        string
	SubscriptionType string

	Name         string
	Email        string
	Country      string
	Zip          string
	TaxNumber    string
	DiscountCode string
	CustomPrice  *int64
	RedirectURL  string
	ExpiresAt    *time.Time

	// Custom is echoed back in webhook custom data. Reserved keys are
	// rejected.
	Custom map[string]string
}

// BillingService is the billing view of one billable entity of the
// surrounding application. All lookups are scoped to the active provider.
type BillingService interface {
	// CreateAsCustomer eagerly creates the local customer row, optionally
	// starting a generic trial.
	CreateAsCustomer(ctx context.Context, ref types.BillableRef, params CreateCustomerParams) (*customer.Customer, error)

	// Customer returns the customer row of a billable, ErrNotFound when the
	// billable never interacted with billing.
	Customer(ctx context.Context, ref types.BillableRef) (*customer.Customer, error)

	// Subscription returns the newest subscription of the given type.
	Subscription(ctx context.Context, ref types.BillableRef, subscriptionType string) (*subscription.Subscription, error)

	// Subscribed reports whether the billable holds a valid subscription of
	// the given type. A customer on a generic trial counts as subscribed.
	Subscribed(ctx context.Context, ref types.BillableRef, subscriptionType string) (bool, error)

	// Orders returns the billable's orders, newest first.
	Orders(ctx context.Context, ref types.BillableRef) ([]*order.Order, error)

	// CustomerPortalURL returns the provider-hosted portal for the billable.
	CustomerPortalURL(ctx context.Context, ref types.BillableRef) (string, error)

	// Checkout creates a provider checkout session carrying the billable
	// identity in its custom data. A billable already holding a valid
	// subscription of the requested type is sent to the customer portal
	// instead.
	Checkout(ctx context.Context, ref types.BillableRef, params CheckoutParams) (*providers.CheckoutData, error)
}

type billingService struct {
	ServiceParams
}

func NewBillingService(params ServiceParams) BillingService {
	return &billingService{
		ServiceParams: params,
	}
}

func (s *billingService) CreateAsCustomer(ctx context.Context, ref types.BillableRef, params CreateCustomerParams) (*customer.Customer, error) {
	provider := s.Config.Payments.Provider

	existing, err := s.CustomerRepo.GetByBillable(ctx, ref, provider)
	if err == nil {
		return existing, nil
	}
	if !ierr.IsNotFound(err) {
		return nil, err
	}

	now := time.Now().UTC()
	cust := &customer.Customer{
		ID:           types.GenerateUUIDWithPrefix(types.UUID_PREFIX_CUSTOMER),
		BillableType: ref.Type,
		BillableID:   ref.ID,
		Provider:     provider,
		Name:         params.Name,
		Email:        params.Email,
		TrialEndsAt:  params.TrialEndsAt,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.CustomerRepo.Create(ctx, cust); err != nil {
		if ierr.IsAlreadyExists(err) {
			return s.CustomerRepo.GetByBillable(ctx, ref, provider)
		}
		return nil, err
	}
	return cust, nil
}

func (s *billingService) Customer(ctx context.Context, ref types.BillableRef) (*customer.Customer, error) {
	return s.CustomerRepo.GetByBillable(ctx, ref, s.Config.Payments.Provider)
}

func (s *billingService) Subscription(ctx context.Context, ref types.BillableRef, subscriptionType string) (*subscription.Subscription, error) {
	if subscriptionType == "" {
		subscriptionType = types.DefaultSubscriptionType
	}

	cust, err := s.Customer(ctx, ref)
	if err != nil {
		return nil, err
	}
	return s.SubscriptionRepo.GetByCustomerAndType(ctx, cust.ID, subscriptionType)
}

func (s *billingService) Subscribed(ctx context.Context, ref types.BillableRef, subscriptionType string) (bool, error) {
	cust, err := s.Customer(ctx, ref)
	if err != nil {
		if ierr.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	if cust.OnGenericTrial() {
		return true, nil
	}

	if subscriptionType == "" {
		subscriptionType = types.DefaultSubscriptionType
	}
	sub, err := s.SubscriptionRepo.GetByCustomerAndType(ctx, cust.ID, subscriptionType)
	if err != nil {
		if ierr.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return sub.Valid(), nil
}

func (s *billingService) Orders(ctx context.Context, ref types.BillableRef) ([]*order.Order, error) {
	cust, err := s.Customer(ctx, ref)
	if err != nil {
		return nil, err
	}
	return s.OrderRepo.ListByCustomer(ctx, cust.ID)
}

func (s *billingService) CustomerPortalURL(ctx context.Context, ref types.BillableRef) (string, error) {
	cust, err := s.Customer(ctx, ref)
	if err != nil {
		return "", err
	}
	if cust.ProviderID == nil {
		return "", ierr.NewError("customer has no provider identity").
			WithHint("The customer portal exists only after the first checkout").
			Mark(ierr.ErrInvalidOperation)
	}

	client, err := s.ProviderClients.ActiveClient()
	if err != nil {
		return "", err
	}
	data, err := client.GetCustomer(ctx, *cust.ProviderID)
	if err != nil {
		return "", err
	}
	return data.PortalURL, nil
}

func (s *billingService) Checkout(ctx context.Context, ref types.BillableRef, params CheckoutParams) (*providers.CheckoutData, error) {
	for key := range params.Custom {
		if lo.Contains(reservedCustomKeys, key) {
			return nil, ierr.NewError("reserved custom data key").
				WithHintf("Custom data key %s is reserved", key).
				Mark(ierr.ErrValidation)
		}
	}

	subscriptionType := params.SubscriptionType
	if subscriptionType == "" {
		subscriptionType = types.DefaultSubscriptionType
	}

	// Already-subscribed billables manage their plan through the portal
	// instead of opening a second checkout.
	subscribed, err := s.Subscribed(ctx, ref, subscriptionType)
	if err != nil {
		return nil, err
	}
	if subscribed {
		url, err := s.CustomerPortalURL(ctx, ref)
		if err == nil && url != "" {
			return &providers.CheckoutData{URL: url}, nil
		}
	}

	custom := map[string]string{
		"billable_id":       ref.ID,
		"billable_type":     ref.Type,
		"subscription_type": subscriptionType,
	}
	for key, value := range params.Custom {
		custom[key] = value
	}

	client, err := s.ProviderClients.ActiveClient()
	if err != nil {
		return nil, err
	}

	return client.CreateCheckout(ctx, &providers.CheckoutRequest{
		VariantID:    params.VariantID,
		Name:         params.Name,
		Email:        params.Email,
		Country:      params.Country,
		Zip:          params.Zip,
		TaxNumber:    params.TaxNumber,
		DiscountCode: params.DiscountCode,
		CustomPrice:  params.CustomPrice,
		RedirectURL:  params.RedirectURL,
		ExpiresAt:    params.ExpiresAt,
		Custom:       custom,
	})
}
