package lemonsqueezy

import (
	"strings"
	"time"

	ierr "github.com/flexprice/payments/internal/errors"
	"github.com/samber/lo"
)

// Custom data keys the billing layer owns. Webhook processing relies on them
// to map a checkout back to a billable entity.
var reservedCustomKeys = []string{"billable_id", "billable_type", "subscription_type"}

// Checkout builds the JSON:API payload of a hosted checkout session.
type Checkout struct {
	store   string
	variant string

	checkoutData map[string]any
	custom       map[string]string

	enabledVariants []string
	customPrice     *int64
	redirectURL     string
	expiresAt       *time.Time
}

// NewCheckout starts a checkout for one variant of the given store.
func NewCheckout(store string, variant string) *Checkout {
	return &Checkout{
		store:        store,
		variant:      variant,
		checkoutData: map[string]any{},
		custom:       map[string]string{},
	}
}

func (c *Checkout) WithName(name string) *Checkout {
	if name != "" {
		c.checkoutData["name"] = name
	}
	return c
}

func (c *Checkout) WithEmail(email string) *Checkout {
	if email != "" {
		c.checkoutData["email"] = email
	}
	return c
}

func (c *Checkout) WithBillingAddress(country string, zip string) *Checkout {
	address := map[string]string{}
	if country != "" {
		address["country"] = country
	}
	if zip != "" {
		address["zip"] = zip
	}
	if len(address) > 0 {
		c.checkoutData["billing_address"] = address
	}
	return c
}

func (c *Checkout) WithTaxNumber(taxNumber string) *Checkout {
	if taxNumber != "" {
		c.checkoutData["tax_number"] = taxNumber
	}
	return c
}

func (c *Checkout) WithDiscountCode(code string) *Checkout {
	if code != "" {
		c.checkoutData["discount_code"] = code
	}
	return c
}

func (c *Checkout) WithCustomPrice(price *int64) *Checkout {
	c.customPrice = price
	return c
}

func (c *Checkout) WithoutVariants() *Checkout {
	c.enabledVariants = []string{c.variant}
	return c
}

func (c *Checkout) RedirectTo(url string) *Checkout {
	c.redirectURL = url
	return c
}

func (c *Checkout) ExpiresAt(t time.Time) *Checkout {
	c.expiresAt = &t
	return c
}

// WithCustomData attaches caller custom data to the session. Keys owned by
// the billing layer are rejected so webhook identity cannot be spoofed from
// checkout call sites.
func (c *Checkout) WithCustomData(custom map[string]string) error {
	for key := range custom {
		if lo.Contains(reservedCustomKeys, key) {
			return ierr.NewError("reserved custom data key").
				WithHintf("Custom data key %q is managed internally and cannot be set", key).
				Mark(ierr.ErrInvalidOperation)
		}
	}
	for key, value := range custom {
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			continue
		}
		c.custom[key] = trimmed
	}
	return nil
}

// withBillable stamps the billable identity. Only the billing service calls
// this, after WithCustomData has rejected caller attempts to set these keys.
func (c *Checkout) withBillable(billableType string, billableID string, subscriptionType string) {
	c.custom["billable_id"] = billableID
	c.custom["billable_type"] = billableType
	if subscriptionType != "" {
		c.custom["subscription_type"] = subscriptionType
	}
}

// payload assembles the JSON:API checkout resource.
func (c *Checkout) payload() map[string]any {
	checkoutData := map[string]any{}
	for k, v := range c.checkoutData {
		checkoutData[k] = v
	}
	checkoutData["custom"] = c.custom

	attributes := map[string]any{
		"checkout_data": checkoutData,
	}
	if c.customPrice != nil {
		attributes["custom_price"] = *c.customPrice
	}
	if c.expiresAt != nil {
		attributes["expires_at"] = c.expiresAt.UTC().Format(time.RFC3339)
	}

	productOptions := map[string]any{}
	if len(c.enabledVariants) > 0 {
		productOptions["enabled_variants"] = c.enabledVariants
	}
	if c.redirectURL != "" {
		productOptions["redirect_url"] = c.redirectURL
	}
	if len(productOptions) > 0 {
		attributes["product_options"] = productOptions
	}

	return map[string]any{
		"data": map[string]any{
			"type":       "checkouts",
			"attributes": attributes,
			"relationships": map[string]any{
				"store": map[string]any{
					"data": map[string]any{"type": "stores", "id": c.store},
				},
				"variant": map[string]any{
					"data": map[string]any{"type": "variants", "id": c.variant},
				},
			},
		},
	}
}
