package lemonsqueezy

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/flexprice/payments/internal/config"
	"github.com/flexprice/payments/internal/domain/customer"
	ierr "github.com/flexprice/payments/internal/errors"
	"github.com/flexprice/payments/internal/logger"
	"github.com/flexprice/payments/internal/service"
	"github.com/flexprice/payments/internal/testutil"
	"github.com/flexprice/payments/internal/types"
	"github.com/stretchr/testify/suite"
)

const orderCreatedBody = `{
	"meta": {
		"event_name": "order_created",
		"custom_data": {"billable_id": "42", "billable_type": "users"}
	},
	"data": {
		"id": "9001",
		"type": "orders",
		"attributes": {
			"store_id": 1,
			"customer_id": 77,
			"identifier": "ord-ident-1",
			"order_number": 5,
			"user_name": "Ada",
			"user_email": "ada@example.com",
			"currency": "USD",
			"subtotal": 1000,
			"discount_total": 0,
			"tax": 200,
			"total": 1200,
			"tax_name": "VAT",
			"tax_rate": "20",
			"tax_inclusive": false,
			"status": "paid",
			"refunded": false,
			"created_at": "2026-01-15T10:00:00.000000Z",
			"urls": {"receipt": "https://receipts.example/1"},
			"first_order_item": {"product_id": 11, "variant_id": 22}
		}
	}
}`

const subscriptionCreatedBody = `{
	"meta": {
		"event_name": "subscription_created",
		"custom_data": {"billable_id": "42", "billable_type": "users", "subscription_type": "swim"}
	},
	"data": {
		"id": "5001",
		"type": "subscriptions",
		"attributes": {
			"store_id": 1,
			"customer_id": 77,
			"user_name": "Ada",
			"user_email": "ada@example.com",
			"status": "on_trial",
			"product_id": 11,
			"variant_id": 22,
			"card_brand": "visa",
			"card_last_four": "4242",
			"pause": null,
			"trial_ends_at": "2026-02-01T00:00:00.000000Z",
			"renews_at": "2026-02-01T00:00:00.000000Z",
			"ends_at": null,
			"first_subscription_item": {"id": 1, "price_id": 33},
			"urls": {"update_payment_method": "https://pay.example/update"}
		}
	}
}`

const subscriptionCancelledBody = `{
	"meta": {
		"event_name": "subscription_cancelled",
		"custom_data": {"billable_id": "42", "billable_type": "users"}
	},
	"data": {
		"id": "5001",
		"type": "subscriptions",
		"attributes": {
			"customer_id": 77,
			"status": "cancelled",
			"ends_at": "2026-03-01T00:00:00.000000Z"
		}
	}
}`

type LemonSqueezyHandlerSuite struct {
	suite.Suite
	ctx           context.Context
	cfg           *config.Configuration
	customers     *testutil.InMemoryCustomerStore
	orders        *testutil.InMemoryOrderStore
	subscriptions *testutil.InMemorySubscriptionStore
	events        *testutil.InMemoryEventPublisher
	handler       *Handler
}

func TestLemonSqueezyHandler(t *testing.T) {
	suite.Run(t, new(LemonSqueezyHandlerSuite))
}

func (s *LemonSqueezyHandlerSuite) SetupTest() {
	s.ctx = context.Background()
	s.cfg = config.GetDefaultConfig()
	s.customers = testutil.NewInMemoryCustomerStore()
	s.orders = testutil.NewInMemoryOrderStore()
	s.subscriptions = testutil.NewInMemorySubscriptionStore()
	s.events = testutil.NewInMemoryEventPublisher()

	log := logger.NewNopLogger()
	resolver := service.NewResolverService(service.ServiceParams{
		Logger:       log,
		Config:       s.cfg,
		CustomerRepo: s.customers,
	})

	s.handler = NewHandler(HandlerParams{
		Logger:        log,
		Config:        s.cfg,
		Resolver:      resolver,
		Customers:     s.customers,
		Orders:        s.orders,
		Subscriptions: s.subscriptions,
		Events:        s.events,
	})
}

func (s *LemonSqueezyHandlerSuite) TestOrderCreated() {
	s.Require().NoError(s.handler.Handle(s.ctx, []byte(orderCreatedBody)))

	cust, err := s.customers.GetByBillable(s.ctx, types.BillableRef{Type: "users", ID: "42"}, types.ProviderLemonSqueezy)
	s.Require().NoError(err)
	s.Equal("Ada", cust.Name)
	s.Equal("ada@example.com", cust.Email)
	s.Require().NotNil(cust.ProviderID)
	s.Equal("77", *cust.ProviderID)

	ord, err := s.orders.GetByProviderID(s.ctx, types.ProviderLemonSqueezy, "9001")
	s.Require().NoError(err)
	s.Equal(cust.ID, ord.CustomerID)
	s.Equal("ord-ident-1", ord.Identifier)
	s.Equal("5", ord.OrderNumber)
	s.Equal("11", ord.ProductID)
	s.Equal("22", ord.VariantID)
	s.Equal(types.OrderStatusPaid, ord.Status)
	s.Equal(int64(1200), ord.Total)
	s.Require().NotNil(ord.Receipt)
	s.Equal("https://receipts.example/1", *ord.Receipt)

	s.Contains(s.events.EventNames(), types.EventOrderCreated)
}

func (s *LemonSqueezyHandlerSuite) TestOrderCreatedRedelivery() {
	s.Require().NoError(s.handler.Handle(s.ctx, []byte(orderCreatedBody)))
	s.Require().NoError(s.handler.Handle(s.ctx, []byte(orderCreatedBody)))

	cust, err := s.customers.GetByBillable(s.ctx, types.BillableRef{Type: "users", ID: "42"}, types.ProviderLemonSqueezy)
	s.Require().NoError(err)

	orders, err := s.orders.ListByCustomer(s.ctx, cust.ID)
	s.Require().NoError(err)
	s.Len(orders, 1, "redelivery must re-sync the existing row, not insert")

	customers, err := s.customers.List(s.ctx)
	s.Require().NoError(err)
	s.Len(customers, 1)
}

func (s *LemonSqueezyHandlerSuite) TestOrderCreatedWithoutIdentifierGetsReference() {
	body := strings.Replace(orderCreatedBody, `"identifier": "ord-ident-1",`, "", 1)
	s.Require().NoError(s.handler.Handle(s.ctx, []byte(body)))

	ord, err := s.orders.GetByProviderID(s.ctx, types.ProviderLemonSqueezy, "9001")
	s.Require().NoError(err)
	s.NotEmpty(ord.Identifier, "orders keep a human-facing reference even without one on the wire")
	s.True(strings.HasPrefix(ord.Identifier, "ORD"))
	s.LessOrEqual(len(ord.Identifier), 12)

	redelivery := strings.Replace(orderCreatedBody, "ord-ident-1", "late-ident", 1)
	s.Require().NoError(s.handler.Handle(s.ctx, []byte(redelivery)))

	ord, err = s.orders.GetByProviderID(s.ctx, types.ProviderLemonSqueezy, "9001")
	s.Require().NoError(err)
	s.Equal("late-ident", ord.Identifier, "a wire identifier replaces the fallback")
}

func (s *LemonSqueezyHandlerSuite) TestOrderRefundedWithoutLocalOrder() {
	body := `{
		"meta": {
			"event_name": "order_refunded",
			"custom_data": {"billable_id": "42", "billable_type": "users"}
		},
		"data": {
			"id": "404404",
			"type": "orders",
			"attributes": {"customer_id": 77, "user_email": "ada@example.com"}
		}
	}`

	s.Require().NoError(s.handler.Handle(s.ctx, []byte(body)))

	// The event still flows so consumers learn about refunds for purchases
	// made before this service existed.
	s.Contains(s.events.EventNames(), types.EventOrderRefunded)
}

func (s *LemonSqueezyHandlerSuite) TestSubscriptionCreated() {
	s.Require().NoError(s.handler.Handle(s.ctx, []byte(subscriptionCreatedBody)))

	sub, err := s.subscriptions.GetByProviderID(s.ctx, types.ProviderLemonSqueezy, "5001")
	s.Require().NoError(err)
	s.Equal("swim", sub.Type)
	s.Equal(types.SubscriptionStatusOnTrial, sub.Status)
	s.Require().NotNil(sub.ProductID)
	s.Equal("11", *sub.ProductID)
	s.Require().NotNil(sub.ProviderPriceID)
	s.Equal("33", *sub.ProviderPriceID)
	s.Require().NotNil(sub.CardLastFour)
	s.Equal("4242", *sub.CardLastFour)
	s.Require().NotNil(sub.TrialEndsAt)
	s.Nil(sub.EndsAt)
	s.Nil(sub.PauseMode)

	s.Contains(s.events.EventNames(), types.EventSubscriptionCreated)
}

func (s *LemonSqueezyHandlerSuite) TestSubscriptionCreatedEndsGenericTrial() {
	trialEndsAt := time.Now().UTC().Add(7 * 24 * time.Hour)
	s.Require().NoError(s.customers.Create(s.ctx, newLocalCustomer("cust_local", &trialEndsAt)))

	s.Require().NoError(s.handler.Handle(s.ctx, []byte(subscriptionCreatedBody)))

	cust, err := s.customers.Get(s.ctx, "cust_local")
	s.Require().NoError(err)
	s.Nil(cust.TrialEndsAt, "a real subscription ends the generic trial")
	s.Require().NotNil(cust.ProviderID)
	s.Equal("77", *cust.ProviderID)

	sub, err := s.subscriptions.GetByProviderID(s.ctx, types.ProviderLemonSqueezy, "5001")
	s.Require().NoError(err)
	s.Equal(cust.ID, sub.CustomerID, "resolves onto the pre-created customer row")
}

func (s *LemonSqueezyHandlerSuite) TestSubscriptionCancelledTransition() {
	s.Require().NoError(s.handler.Handle(s.ctx, []byte(subscriptionCreatedBody)))
	s.events.Reset()

	s.Require().NoError(s.handler.Handle(s.ctx, []byte(subscriptionCancelledBody)))

	sub, err := s.subscriptions.GetByProviderID(s.ctx, types.ProviderLemonSqueezy, "5001")
	s.Require().NoError(err)
	s.Equal(types.SubscriptionStatusCanceled, sub.Status)
	s.Require().NotNil(sub.EndsAt)
	// Fields absent from the cancellation delta keep their values.
	s.Require().NotNil(sub.ProductID)
	s.Equal("11", *sub.ProductID)

	s.Equal([]string{types.EventSubscriptionCanceled}, s.events.EventNames())
}

func (s *LemonSqueezyHandlerSuite) TestTransitionForUnknownSubscriptionStillEmits() {
	s.Require().NoError(s.handler.Handle(s.ctx, []byte(subscriptionCancelledBody)))

	s.Contains(s.events.EventNames(), types.EventSubscriptionCanceled)
}

func (s *LemonSqueezyHandlerSuite) TestMissingEventName() {
	err := s.handler.Handle(s.ctx, []byte(`{"meta":{},"data":{"id":"1"}}`))
	s.Require().Error(err)
	s.True(ierr.IsInvalidEventName(err))
}

func (s *LemonSqueezyHandlerSuite) TestUnhandledEvent() {
	err := s.handler.Handle(s.ctx, []byte(`{"meta":{"event_name":"affiliate_activated"},"data":{"id":"1"}}`))
	s.Require().Error(err)
	s.True(ierr.IsNotImplemented(err))
}

func (s *LemonSqueezyHandlerSuite) TestMissingBillableIdentity() {
	body := strings.Replace(
		orderCreatedBody,
		`{"billable_id": "42", "billable_type": "users"}`,
		`{}`,
		1,
	)

	err := s.handler.Handle(s.ctx, []byte(body))
	s.Require().Error(err)
	s.True(ierr.IsInvalidCustomData(err))

	// With anonymous billables allowed the same payload resolves a customer
	// by provider id instead.
	s.cfg.Payments.AllowAnonymousBillables = true
	s.Require().NoError(s.handler.Handle(s.ctx, []byte(body)))

	cust, err := s.customers.GetByProviderID(s.ctx, types.ProviderLemonSqueezy, "77")
	s.Require().NoError(err)
	s.Empty(cust.BillableID)
}

func newLocalCustomer(id string, trialEndsAt *time.Time) *customer.Customer {
	now := time.Now().UTC()
	return &customer.Customer{
		ID:           id,
		BillableType: "users",
		BillableID:   "42",
		Provider:     types.ProviderLemonSqueezy,
		TrialEndsAt:  trialEndsAt,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}
