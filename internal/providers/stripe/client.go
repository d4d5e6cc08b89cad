package stripe

import (
	"context"
	"encoding/json"
	"time"

	"github.com/flexprice/payments/internal/config"
	"github.com/flexprice/payments/internal/domain/subscription"
	ierr "github.com/flexprice/payments/internal/errors"
	"github.com/flexprice/payments/internal/providers"
	"github.com/flexprice/payments/internal/types"
	"github.com/stripe/stripe-go/v82"
)

// Client is the Stripe API client.
type Client struct {
	client *stripe.Client
	config config.ProviderConfig
}

// NewClient creates a Stripe client from the provider config block.
func NewClient(cfg config.ProviderConfig) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, ierr.NewError("missing stripe api key").
			WithHint("Set the Stripe secret key in the provider configuration").
			Mark(ierr.ErrInvalidOperation)
	}
	return &Client{
		client: stripe.NewClient(cfg.APIKey, nil),
		config: cfg,
	}, nil
}

func (c *Client) Provider() types.ProviderType {
	return types.ProviderStripe
}

// toObject converts an API response into the wire shape the webhook path
// parses, so both paths share one derivation of status and end dates.
func toObject(sub *stripe.Subscription) *subscriptionObject {
	obj := &subscriptionObject{
		ID:                sub.ID,
		Status:            string(sub.Status),
		Metadata:          sub.Metadata,
		CancelAtPeriodEnd: sub.CancelAtPeriodEnd,
	}
	if sub.Customer != nil {
		obj.Customer = sub.Customer.ID
	}
	if sub.TrialEnd > 0 {
		trialEnd := sub.TrialEnd
		obj.TrialEnd = &trialEnd
	}
	if sub.CancelAt > 0 {
		cancelAt := sub.CancelAt
		obj.CancelAt = &cancelAt
	}
	if sub.CanceledAt > 0 {
		canceledAt := sub.CanceledAt
		obj.CanceledAt = &canceledAt
	}
	if sub.Items != nil {
		for _, item := range sub.Items.Data {
			wireItem := subscriptionItemObject{ID: item.ID}
			if item.CurrentPeriodEnd > 0 {
				periodEnd := item.CurrentPeriodEnd
				wireItem.CurrentPeriodEnd = &periodEnd
			}
			if item.Quantity > 0 {
				quantity := item.Quantity
				wireItem.Quantity = &quantity
			}
			if item.Price != nil {
				wireItem.Price.ID = item.Price.ID
				if item.Price.Product != nil {
					wireItem.Price.Product = types.FlexID(item.Price.Product.ID)
				}
			}
			obj.Items.Data = append(obj.Items.Data, wireItem)
		}
	}
	return obj
}

func (c *Client) subscriptionData(sub *stripe.Subscription) (*providers.SubscriptionData, error) {
	obj := toObject(sub)
	attrs, err := obj.attributes()
	if err != nil {
		return nil, err
	}

	if sub.PauseCollection != nil {
		pause := subscription.Pause{Mode: pauseMode(sub.PauseCollection.Behavior)}
		if sub.PauseCollection.ResumesAt > 0 {
			resumesAt := types.FromEpoch(sub.PauseCollection.ResumesAt)
			pause.ResumesAt = &resumesAt
		}
		attrs.Pause = subscription.Set(pause)
	} else {
		attrs.Pause = subscription.Null[subscription.Pause]()
	}

	raw, _ := json.Marshal(sub)
	return &providers.SubscriptionData{
		ProviderID: sub.ID,
		Attributes: attrs,
		Raw:        raw,
	}, nil
}

func pauseMode(behavior stripe.SubscriptionPauseCollectionBehavior) types.PauseMode {
	if behavior == stripe.SubscriptionPauseCollectionBehaviorVoid {
		return types.PauseModeVoid
	}
	return types.PauseModeFree
}

func apiError(err error) error {
	return ierr.WithError(err).
		WithHint("Stripe request failed").
		Mark(ierr.ErrHTTPClient)
}

func (c *Client) GetCustomer(ctx context.Context, customerID string) (*providers.CustomerData, error) {
	cust, err := c.client.V1Customers.Retrieve(ctx, customerID, nil)
	if err != nil {
		return nil, apiError(err)
	}

	data := &providers.CustomerData{
		ProviderID: cust.ID,
		Name:       cust.Name,
		Email:      cust.Email,
	}

	session, err := c.client.V1BillingPortalSessions.Create(ctx, &stripe.BillingPortalSessionCreateParams{
		Customer: stripe.String(customerID),
	})
	if err != nil {
		return nil, apiError(err)
	}
	data.PortalURL = session.URL

	return data, nil
}

func (c *Client) GetSubscription(ctx context.Context, providerID string) (*providers.SubscriptionData, error) {
	sub, err := c.client.V1Subscriptions.Retrieve(ctx, providerID, nil)
	if err != nil {
		return nil, apiError(err)
	}
	return c.subscriptionData(sub)
}

func (c *Client) CancelSubscription(ctx context.Context, providerID string) (*providers.SubscriptionData, error) {
	// Cancellation keeps the subscription alive until the period ends,
	// matching the grace period semantics of the local model.
	sub, err := c.client.V1Subscriptions.Update(ctx, providerID, &stripe.SubscriptionUpdateParams{
		CancelAtPeriodEnd: stripe.Bool(true),
	})
	if err != nil {
		return nil, apiError(err)
	}
	return c.subscriptionData(sub)
}

func (c *Client) ResumeSubscription(ctx context.Context, providerID string) (*providers.SubscriptionData, error) {
	sub, err := c.client.V1Subscriptions.Update(ctx, providerID, &stripe.SubscriptionUpdateParams{
		CancelAtPeriodEnd: stripe.Bool(false),
	})
	if err != nil {
		return nil, apiError(err)
	}
	return c.subscriptionData(sub)
}

func (c *Client) PauseSubscription(ctx context.Context, providerID string, mode types.PauseMode, resumesAt *time.Time) (*providers.SubscriptionData, error) {
	behavior := string(stripe.SubscriptionPauseCollectionBehaviorVoid)
	if mode == types.PauseModeFree {
		// Free-mode pauses keep access while invoices accumulate as drafts.
		behavior = string(stripe.SubscriptionPauseCollectionBehaviorKeepAsDraft)
	}

	pause := &stripe.SubscriptionUpdatePauseCollectionParams{
		Behavior: stripe.String(behavior),
	}
	if resumesAt != nil {
		pause.ResumesAt = stripe.Int64(resumesAt.Unix())
	}

	sub, err := c.client.V1Subscriptions.Update(ctx, providerID, &stripe.SubscriptionUpdateParams{
		PauseCollection: pause,
	})
	if err != nil {
		return nil, apiError(err)
	}
	return c.subscriptionData(sub)
}

func (c *Client) UnpauseSubscription(ctx context.Context, providerID string) (*providers.SubscriptionData, error) {
	params := &stripe.SubscriptionUpdateParams{}
	params.AddExtra("pause_collection", "")

	sub, err := c.client.V1Subscriptions.Update(ctx, providerID, params)
	if err != nil {
		return nil, apiError(err)
	}
	return c.subscriptionData(sub)
}

func (c *Client) SwapSubscription(ctx context.Context, providerID string, productID string, variantID string, opts providers.SwapOptions) (*providers.SubscriptionData, error) {
	current, err := c.client.V1Subscriptions.Retrieve(ctx, providerID, nil)
	if err != nil {
		return nil, apiError(err)
	}
	if current.Items == nil || len(current.Items.Data) == 0 {
		return nil, ierr.NewError("subscription has no items").
			WithHint("Cannot swap a subscription without items").
			Mark(ierr.ErrInvalidOperation)
	}

	params := &stripe.SubscriptionUpdateParams{
		Items: []*stripe.SubscriptionUpdateItemParams{
			{
				ID:    stripe.String(current.Items.Data[0].ID),
				Price: stripe.String(variantID),
			},
		},
	}
	if opts.DisableProrations {
		params.ProrationBehavior = stripe.String("none")
	}
	if opts.InvoiceImmediately {
		params.ProrationBehavior = stripe.String("always_invoice")
	}

	sub, err := c.client.V1Subscriptions.Update(ctx, providerID, params)
	if err != nil {
		return nil, apiError(err)
	}
	return c.subscriptionData(sub)
}

func (c *Client) AnchorSubscriptionBillingCycleOn(ctx context.Context, providerID string, date *int64) (*providers.SubscriptionData, error) {
	params := &stripe.SubscriptionUpdateParams{}
	if date == nil || *date == 0 {
		params.TrialEndNow = stripe.Bool(true)
	} else {
		params.TrialEnd = stripe.Int64(*date)
	}

	sub, err := c.client.V1Subscriptions.Update(ctx, providerID, params)
	if err != nil {
		return nil, apiError(err)
	}
	return c.subscriptionData(sub)
}

func (c *Client) CreateCheckout(ctx context.Context, req *providers.CheckoutRequest) (*providers.CheckoutData, error) {
	customData, err := json.Marshal(req.Custom)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to encode checkout custom data").
			Mark(ierr.ErrSystem)
	}
	metadata := map[string]string{"custom_data": string(customData)}

	params := &stripe.PaymentLinkCreateParams{
		LineItems: []*stripe.PaymentLinkCreateLineItemParams{
			{
				Price:    stripe.String(req.VariantID),
				Quantity: stripe.Int64(1),
			},
		},
		Metadata: metadata,
		// Custom data must land on the subscription so webhook payloads
		// carry the billable identity back.
		SubscriptionData: &stripe.PaymentLinkCreateSubscriptionDataParams{
			Metadata: metadata,
		},
	}

	link, err := c.client.V1PaymentLinks.Create(ctx, params)
	if err != nil {
		return nil, apiError(err)
	}

	return &providers.CheckoutData{
		ProviderID: link.ID,
		URL:        link.URL,
	}, nil
}

func (c *Client) ListProducts(ctx context.Context) ([]*providers.Product, error) {
	products := []*providers.Product{}
	for product, err := range c.client.V1Products.List(ctx, &stripe.ProductListParams{
		Active: stripe.Bool(true),
	}) {
		if err != nil {
			return nil, apiError(err)
		}
		mapped, err := c.withPrices(ctx, product)
		if err != nil {
			return nil, err
		}
		products = append(products, mapped)
	}
	return products, nil
}

func (c *Client) GetProduct(ctx context.Context, productID string) (*providers.Product, error) {
	product, err := c.client.V1Products.Retrieve(ctx, productID, nil)
	if err != nil {
		return nil, apiError(err)
	}
	return c.withPrices(ctx, product)
}

func (c *Client) withPrices(ctx context.Context, product *stripe.Product) (*providers.Product, error) {
	mapped := &providers.Product{
		ID:     product.ID,
		Name:   product.Name,
		Status: "published",
	}
	if !product.Active {
		mapped.Status = "draft"
	}

	for price, err := range c.client.V1Prices.List(ctx, &stripe.PriceListParams{
		Product: stripe.String(product.ID),
	}) {
		if err != nil {
			return nil, apiError(err)
		}
		mapped.Variants = append(mapped.Variants, providers.Variant{
			ID:        price.ID,
			ProductID: product.ID,
			Name:      price.Nickname,
			Price:     price.UnitAmount,
		})
	}
	return mapped, nil
}
