package service

import (
	"context"
	"testing"
	"time"

	"github.com/flexprice/payments/internal/config"
	"github.com/flexprice/payments/internal/domain/customer"
	"github.com/flexprice/payments/internal/domain/subscription"
	ierr "github.com/flexprice/payments/internal/errors"
	"github.com/flexprice/payments/internal/logger"
	"github.com/flexprice/payments/internal/providers"
	"github.com/flexprice/payments/internal/testutil"
	"github.com/flexprice/payments/internal/types"
	"github.com/stretchr/testify/suite"
)

type BillingServiceSuite struct {
	suite.Suite
	ctx           context.Context
	cfg           *config.Configuration
	customers     *testutil.InMemoryCustomerStore
	orders        *testutil.InMemoryOrderStore
	subscriptions *testutil.InMemorySubscriptionStore
	client        *fakeApiClient
	billing       BillingService
	ref           types.BillableRef
}

func TestBillingService(t *testing.T) {
	suite.Run(t, new(BillingServiceSuite))
}

func (s *BillingServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.cfg = config.GetDefaultConfig()
	s.customers = testutil.NewInMemoryCustomerStore()
	s.orders = testutil.NewInMemoryOrderStore()
	s.subscriptions = testutil.NewInMemorySubscriptionStore()
	s.client = &fakeApiClient{provider: types.ProviderLemonSqueezy}
	s.ref = types.BillableRef{Type: "users", ID: "42"}

	s.billing = NewBillingService(ServiceParams{
		Logger:           logger.NewNopLogger(),
		Config:           s.cfg,
		CustomerRepo:     s.customers,
		OrderRepo:        s.orders,
		SubscriptionRepo: s.subscriptions,
		ProviderClients:  &fakeClientFactory{client: s.client},
	})
}

func (s *BillingServiceSuite) createCustomer(mutate func(c *customer.Customer)) *customer.Customer {
	now := time.Now().UTC()
	cust := &customer.Customer{
		ID:           "cust_1",
		BillableType: s.ref.Type,
		BillableID:   s.ref.ID,
		Provider:     types.ProviderLemonSqueezy,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if mutate != nil {
		mutate(cust)
	}
	s.Require().NoError(s.customers.Create(s.ctx, cust))
	return cust
}

func (s *BillingServiceSuite) createSubscription(status types.SubscriptionStatus) *subscription.Subscription {
	now := time.Now().UTC()
	sub := &subscription.Subscription{
		ID:         "sub_1",
		Type:       types.DefaultSubscriptionType,
		CustomerID: "cust_1",
		Provider:   types.ProviderLemonSqueezy,
		ProviderID: "5001",
		Status:     status,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	s.Require().NoError(s.subscriptions.Create(s.ctx, sub))
	return sub
}

func (s *BillingServiceSuite) TestCreateAsCustomerIsIdempotent() {
	first, err := s.billing.CreateAsCustomer(s.ctx, s.ref, CreateCustomerParams{
		Name:  "Ada",
		Email: "ada@example.com",
	})
	s.Require().NoError(err)

	second, err := s.billing.CreateAsCustomer(s.ctx, s.ref, CreateCustomerParams{})
	s.Require().NoError(err)
	s.Equal(first.ID, second.ID)

	all, err := s.customers.List(s.ctx)
	s.Require().NoError(err)
	s.Len(all, 1)
}

func (s *BillingServiceSuite) TestSubscribed() {
	subscribed, err := s.billing.Subscribed(s.ctx, s.ref, "")
	s.Require().NoError(err)
	s.False(subscribed, "unknown billable is not subscribed")

	s.createCustomer(nil)
	subscribed, err = s.billing.Subscribed(s.ctx, s.ref, "")
	s.Require().NoError(err)
	s.False(subscribed, "customer without subscription is not subscribed")

	s.createSubscription(types.SubscriptionStatusActive)
	subscribed, err = s.billing.Subscribed(s.ctx, s.ref, "")
	s.Require().NoError(err)
	s.True(subscribed)
}

func (s *BillingServiceSuite) TestSubscribedDuringGenericTrial() {
	trialEndsAt := time.Now().UTC().Add(7 * 24 * time.Hour)
	s.createCustomer(func(c *customer.Customer) {
		c.TrialEndsAt = &trialEndsAt
	})

	subscribed, err := s.billing.Subscribed(s.ctx, s.ref, "")
	s.Require().NoError(err)
	s.True(subscribed, "a generic trial counts as subscribed")
}

func (s *BillingServiceSuite) TestSubscribedAfterExpiry() {
	s.createCustomer(nil)
	s.createSubscription(types.SubscriptionStatusExpired)

	subscribed, err := s.billing.Subscribed(s.ctx, s.ref, "")
	s.Require().NoError(err)
	s.False(subscribed)
}

func (s *BillingServiceSuite) TestCheckoutRejectsReservedCustomKeys() {
	for _, key := range []string{"billable_id", "billable_type", "subscription_type"} {
		_, err := s.billing.Checkout(s.ctx, s.ref, CheckoutParams{
			VariantID: "22",
			Custom:    map[string]string{key: "x"},
		})
		s.Require().Error(err)
		s.True(ierr.IsValidation(err))
	}
}

func (s *BillingServiceSuite) TestCheckoutInjectsBillableIdentity() {
	s.client.checkout = &providers.CheckoutData{URL: "https://checkout.example/abc"}

	data, err := s.billing.Checkout(s.ctx, s.ref, CheckoutParams{
		VariantID:        "22",
		SubscriptionType: "swim",
		Custom:           map[string]string{"campaign": "spring"},
	})
	s.Require().NoError(err)
	s.Equal("https://checkout.example/abc", data.URL)

	req := s.client.lastCheckoutReq
	s.Require().NotNil(req)
	s.Equal("22", req.VariantID)
	s.Equal("42", req.Custom["billable_id"])
	s.Equal("users", req.Custom["billable_type"])
	s.Equal("swim", req.Custom["subscription_type"])
	s.Equal("spring", req.Custom["campaign"])
}

func (s *BillingServiceSuite) TestCheckoutForSubscribedBillableReturnsPortal() {
	providerID := "77"
	s.createCustomer(func(c *customer.Customer) {
		c.ProviderID = &providerID
	})
	s.createSubscription(types.SubscriptionStatusActive)
	s.client.customer = &providers.CustomerData{
		ProviderID: "77",
		PortalURL:  "https://portal.example/77",
	}

	data, err := s.billing.Checkout(s.ctx, s.ref, CheckoutParams{VariantID: "22"})
	s.Require().NoError(err)
	s.Equal("https://portal.example/77", data.URL)
	s.NotContains(s.client.calls, "CreateCheckout")
}

func (s *BillingServiceSuite) TestCustomerPortalURLRequiresProviderIdentity() {
	s.createCustomer(nil)

	_, err := s.billing.CustomerPortalURL(s.ctx, s.ref)
	s.Require().Error(err)
	s.True(ierr.IsInvalidOperation(err))
}

func (s *BillingServiceSuite) TestSubscriptionDefaultsType() {
	s.createCustomer(nil)
	s.createSubscription(types.SubscriptionStatusActive)

	sub, err := s.billing.Subscription(s.ctx, s.ref, "")
	s.Require().NoError(err)
	s.Equal(types.DefaultSubscriptionType, sub.Type)

	_, err = s.billing.Subscription(s.ctx, s.ref, "addon")
	s.Require().Error(err)
	s.True(ierr.IsNotFound(err))
}
