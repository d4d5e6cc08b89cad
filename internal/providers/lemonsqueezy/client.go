package lemonsqueezy

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/flexprice/payments/internal/config"
	ierr "github.com/flexprice/payments/internal/errors"
	"github.com/flexprice/payments/internal/httpclient"
	"github.com/flexprice/payments/internal/providers"
	"github.com/flexprice/payments/internal/types"
	"github.com/samber/lo"
)

const apiBaseURL = "https://api.lemonsqueezy.com/v1"

// Client is the Lemon Squeezy API client. All requests use the JSON:API
// content type the platform requires.
type Client struct {
	client httpclient.Client
	apiKey string
	store  string
	config config.ProviderConfig
}

// NewClient creates a Lemon Squeezy client from the provider config block.
func NewClient(httpClient httpclient.Client, cfg config.ProviderConfig) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, ierr.NewError("missing lemon squeezy api key").
			WithHint("Set the Lemon Squeezy API key in the provider configuration").
			Mark(ierr.ErrInvalidOperation)
	}
	return &Client{
		client: httpClient,
		apiKey: cfg.APIKey,
		store:  cfg.StoreID,
		config: cfg,
	}, nil
}

func (c *Client) Provider() types.ProviderType {
	return types.ProviderLemonSqueezy
}

// envelope is the JSON:API response wrapper.
type envelope struct {
	Data     envelopeData    `json:"data"`
	Included []envelopeData  `json:"included"`
	Errors   []envelopeError `json:"errors"`
}

type envelopeData struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	Attributes json.RawMessage `json:"attributes"`
}

type envelopeError struct {
	Status string `json:"status"`
	Detail string `json:"detail"`
}

func (c *Client) send(ctx context.Context, method string, path string, payload any) (*envelope, error) {
	var body []byte
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		if err != nil {
			return nil, ierr.WithError(err).
				WithHint("Failed to encode request payload").
				Mark(ierr.ErrSystem)
		}
	}

	resp, err := c.client.Send(ctx, &httpclient.Request{
		Method: method,
		URL:    apiBaseURL + path,
		Body:   body,
		Headers: map[string]string{
			"Authorization": "Bearer " + c.apiKey,
			"Accept":        "application/vnd.api+json",
			"Content-Type":  "application/vnd.api+json",
		},
	})
	if err != nil {
		if httpErr, ok := httpclient.IsHTTPError(err); ok {
			return nil, apiError(httpErr)
		}
		return nil, err
	}

	var env envelope
	if len(resp.Body) > 0 {
		if err := json.Unmarshal(resp.Body, &env); err != nil {
			return nil, ierr.WithError(err).
				WithHint("Provider returned an unexpected response shape").
				Mark(ierr.ErrHTTPClient)
		}
	}
	return &env, nil
}

func apiError(httpErr *httpclient.Error) error {
	var env envelope
	detail := "provider request failed"
	if err := json.Unmarshal(httpErr.Response, &env); err == nil && len(env.Errors) > 0 {
		detail = env.Errors[0].Detail
	}
	return ierr.WithError(httpErr).
		WithHint(detail).
		WithReportableDetails(map[string]any{"status_code": httpErr.StatusCode}).
		Mark(ierr.ErrHTTPClient)
}

func (c *Client) subscriptionData(env *envelope) (*providers.SubscriptionData, error) {
	attrs, err := ParseSubscriptionAttributes(env.Data.Attributes)
	if err != nil {
		return nil, err
	}
	return &providers.SubscriptionData{
		ProviderID: env.Data.ID,
		Attributes: attrs,
		URLs:       subscriptionURLs(env.Data.Attributes),
		Raw:        env.Data.Attributes,
	}, nil
}

func (c *Client) GetCustomer(ctx context.Context, customerID string) (*providers.CustomerData, error) {
	env, err := c.send(ctx, http.MethodGet, "/customers/"+customerID, nil)
	if err != nil {
		return nil, err
	}

	var wire struct {
		Name  string `json:"name"`
		Email string `json:"email"`
		URLs  struct {
			CustomerPortal string `json:"customer_portal"`
		} `json:"urls"`
	}
	if err := json.Unmarshal(env.Data.Attributes, &wire); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Customer attributes are malformed").
			Mark(ierr.ErrHTTPClient)
	}

	return &providers.CustomerData{
		ProviderID: env.Data.ID,
		Name:       wire.Name,
		Email:      wire.Email,
		PortalURL:  wire.URLs.CustomerPortal,
	}, nil
}

func (c *Client) GetSubscription(ctx context.Context, providerID string) (*providers.SubscriptionData, error) {
	env, err := c.send(ctx, http.MethodGet, "/subscriptions/"+providerID, nil)
	if err != nil {
		return nil, err
	}
	return c.subscriptionData(env)
}

func (c *Client) CancelSubscription(ctx context.Context, providerID string) (*providers.SubscriptionData, error) {
	env, err := c.send(ctx, http.MethodDelete, "/subscriptions/"+providerID, nil)
	if err != nil {
		return nil, err
	}
	return c.subscriptionData(env)
}

func (c *Client) ResumeSubscription(ctx context.Context, providerID string) (*providers.SubscriptionData, error) {
	env, err := c.send(ctx, http.MethodPatch, "/subscriptions/"+providerID, map[string]any{
		"data": map[string]any{
			"type": "subscriptions",
			"id":   providerID,
			"attributes": map[string]any{
				"cancelled": false,
			},
		},
	})
	if err != nil {
		return nil, err
	}
	return c.subscriptionData(env)
}

func (c *Client) PauseSubscription(ctx context.Context, providerID string, mode types.PauseMode, resumesAt *time.Time) (*providers.SubscriptionData, error) {
	pause := map[string]any{
		"mode": mode.String(),
	}
	if resumesAt != nil {
		pause["resumes_at"] = resumesAt.UTC().Format(time.RFC3339)
	}

	env, err := c.send(ctx, http.MethodPatch, "/subscriptions/"+providerID, map[string]any{
		"data": map[string]any{
			"type": "subscriptions",
			"id":   providerID,
			"attributes": map[string]any{
				"pause": pause,
			},
		},
	})
	if err != nil {
		return nil, err
	}
	return c.subscriptionData(env)
}

func (c *Client) UnpauseSubscription(ctx context.Context, providerID string) (*providers.SubscriptionData, error) {
	env, err := c.send(ctx, http.MethodPatch, "/subscriptions/"+providerID, map[string]any{
		"data": map[string]any{
			"type": "subscriptions",
			"id":   providerID,
			"attributes": map[string]any{
				"pause": nil,
			},
		},
	})
	if err != nil {
		return nil, err
	}
	return c.subscriptionData(env)
}

func (c *Client) SwapSubscription(ctx context.Context, providerID string, productID string, variantID string, opts providers.SwapOptions) (*providers.SubscriptionData, error) {
	attributes := map[string]any{
		"product_id":         productID,
		"variant_id":         variantID,
		"disable_prorations": opts.DisableProrations,
	}
	if opts.InvoiceImmediately {
		attributes["invoice_immediately"] = true
	}

	env, err := c.send(ctx, http.MethodPatch, "/subscriptions/"+providerID, map[string]any{
		"data": map[string]any{
			"type":       "subscriptions",
			"id":         providerID,
			"attributes": attributes,
		},
	})
	if err != nil {
		return nil, err
	}
	return c.subscriptionData(env)
}

func (c *Client) AnchorSubscriptionBillingCycleOn(ctx context.Context, providerID string, date *int64) (*providers.SubscriptionData, error) {
	var anchor any
	if date != nil {
		anchor = *date
	}

	env, err := c.send(ctx, http.MethodPatch, "/subscriptions/"+providerID, map[string]any{
		"data": map[string]any{
			"type": "subscriptions",
			"id":   providerID,
			"attributes": map[string]any{
				"billing_anchor": anchor,
			},
		},
	})
	if err != nil {
		return nil, err
	}
	return c.subscriptionData(env)
}

func (c *Client) CreateCheckout(ctx context.Context, req *providers.CheckoutRequest) (*providers.CheckoutData, error) {
	if c.store == "" {
		return nil, ierr.NewError("missing lemon squeezy store id").
			WithHint("Set the store id in the provider configuration to create checkouts").
			Mark(ierr.ErrInvalidOperation)
	}

	checkout := NewCheckout(c.store, req.VariantID).
		WithName(req.Name).
		WithEmail(req.Email).
		WithBillingAddress(req.Country, req.Zip).
		WithTaxNumber(req.TaxNumber).
		WithDiscountCode(req.DiscountCode).
		WithCustomPrice(req.CustomPrice)

	redirect := req.RedirectURL
	if redirect == "" {
		redirect = c.config.RedirectURL
	}
	if redirect != "" {
		checkout.RedirectTo(redirect)
	}
	if req.ExpiresAt != nil {
		checkout.ExpiresAt(*req.ExpiresAt)
	}

	custom := map[string]string{}
	billableID, billableType := "", ""
	subscriptionType := ""
	for key, value := range req.Custom {
		switch key {
		case "billable_id":
			billableID = value
		case "billable_type":
			billableType = value
		case "subscription_type":
			subscriptionType = value
		default:
			custom[key] = value
		}
	}
	if err := checkout.WithCustomData(custom); err != nil {
		return nil, err
	}
	checkout.withBillable(billableType, billableID, subscriptionType)

	env, err := c.send(ctx, http.MethodPost, "/checkouts", checkout.payload())
	if err != nil {
		return nil, err
	}

	var wire struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(env.Data.Attributes, &wire); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Checkout attributes are malformed").
			Mark(ierr.ErrHTTPClient)
	}

	return &providers.CheckoutData{
		ProviderID: env.Data.ID,
		URL:        wire.URL,
	}, nil
}

func (c *Client) ListProducts(ctx context.Context) ([]*providers.Product, error) {
	if c.store == "" {
		return nil, ierr.NewError("missing lemon squeezy store id").
			WithHint("Set the store id in the provider configuration to list products").
			Mark(ierr.ErrInvalidOperation)
	}

	env, err := c.sendList(ctx, "/stores/"+c.store+"/products?include=variants&page[size]=100")
	if err != nil {
		return nil, err
	}

	variants := parseVariants(env.Included)

	products := make([]*providers.Product, 0, len(env.list))
	for _, item := range env.list {
		product, err := parseProduct(item)
		if err != nil {
			return nil, err
		}
		if product.Status != "published" {
			continue
		}
		product.Variants = lo.Filter(variants, func(v providers.Variant, _ int) bool {
			return v.ProductID == product.ID
		})
		products = append(products, product)
	}
	return products, nil
}

func (c *Client) GetProduct(ctx context.Context, productID string) (*providers.Product, error) {
	env, err := c.send(ctx, http.MethodGet, "/products/"+productID+"?include=variants", nil)
	if err != nil {
		return nil, err
	}

	product, err := parseProduct(env.Data)
	if err != nil {
		return nil, err
	}
	product.Variants = parseVariants(env.Included)
	return product, nil
}

// listEnvelope is the JSON:API wrapper of collection responses.
type listEnvelope struct {
	list     []envelopeData
	Included []envelopeData
}

func (c *Client) sendList(ctx context.Context, path string) (*listEnvelope, error) {
	resp, err := c.client.Send(ctx, &httpclient.Request{
		Method: http.MethodGet,
		URL:    apiBaseURL + path,
		Headers: map[string]string{
			"Authorization": "Bearer " + c.apiKey,
			"Accept":        "application/vnd.api+json",
		},
	})
	if err != nil {
		if httpErr, ok := httpclient.IsHTTPError(err); ok {
			return nil, apiError(httpErr)
		}
		return nil, err
	}

	var wire struct {
		Data     []envelopeData `json:"data"`
		Included []envelopeData `json:"included"`
	}
	if err := json.Unmarshal(resp.Body, &wire); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Provider returned an unexpected response shape").
			Mark(ierr.ErrHTTPClient)
	}
	return &listEnvelope{list: wire.Data, Included: wire.Included}, nil
}

func parseProduct(data envelopeData) (*providers.Product, error) {
	var wire struct {
		Name   string `json:"name"`
		Status string `json:"status"`
	}
	if err := json.Unmarshal(data.Attributes, &wire); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Product attributes are malformed").
			Mark(ierr.ErrHTTPClient)
	}
	return &providers.Product{
		ID:     data.ID,
		Name:   wire.Name,
		Status: wire.Status,
	}, nil
}

func parseVariants(included []envelopeData) []providers.Variant {
	variants := []providers.Variant{}
	for _, item := range included {
		if item.Type != "variants" {
			continue
		}
		var wire struct {
			ProductID types.FlexID `json:"product_id"`
			Name      string       `json:"name"`
			Price     int64        `json:"price"`
		}
		if err := json.Unmarshal(item.Attributes, &wire); err != nil {
			continue
		}
		variants = append(variants, providers.Variant{
			ID:        item.ID,
			ProductID: wire.ProductID.String(),
			Name:      wire.Name,
			Price:     wire.Price,
		})
	}
	return variants
}
