package lemonsqueezy

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/flexprice/payments/internal/domain/order"
	"github.com/flexprice/payments/internal/domain/subscription"
	ierr "github.com/flexprice/payments/internal/errors"
	"github.com/flexprice/payments/internal/types"
)

// WebhookPayload is the outer JSON:API shape of every Lemon Squeezy webhook.
type WebhookPayload struct {
	Meta PayloadMeta `json:"meta"`
	Data PayloadData `json:"data"`
}

// PayloadMeta carries the event name and the custom data echoed back from
// checkout.
type PayloadMeta struct {
	EventName  string            `json:"event_name"`
	CustomData map[string]string `json:"custom_data"`
}

// PayloadData is the JSON:API resource object.
type PayloadData struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	Attributes json.RawMessage `json:"attributes"`
}

// ParsePayload decodes a raw webhook body.
func ParsePayload(body []byte) (*WebhookPayload, error) {
	var payload WebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Webhook body is not valid JSON").
			Mark(ierr.ErrValidation)
	}
	return &payload, nil
}

// orderAttributes is the wire shape of order payloads.
type orderAttributes struct {
	StoreID       types.FlexID `json:"store_id"`
	CustomerID    types.FlexID `json:"customer_id"`
	Identifier    string       `json:"identifier"`
	OrderNumber   types.FlexID `json:"order_number"`
	Currency      *string      `json:"currency"`
	Subtotal      *int64       `json:"subtotal"`
	DiscountTotal *int64       `json:"discount_total"`
	Tax           *int64       `json:"tax"`
	Total         *int64       `json:"total"`
	TaxName       string       `json:"tax_name"`
	TaxRate       string       `json:"tax_rate"`
	TaxInclusive  bool         `json:"tax_inclusive"`
	Status        *string      `json:"status"`
	Refunded      bool         `json:"refunded"`
	RefundedAt    *string      `json:"refunded_at"`
	CreatedAt     *string      `json:"created_at"`
	URLs          struct {
		Receipt *string `json:"receipt"`
	} `json:"urls"`
	FirstOrderItem struct {
		ProductID types.FlexID `json:"product_id"`
		VariantID types.FlexID `json:"variant_id"`
	} `json:"first_order_item"`
}

// ParseOrderAttributes translates an order payload into domain attributes.
// The result is validated so truncated payloads fail loudly instead of
// zeroing stored amounts.
func ParseOrderAttributes(providerID string, data json.RawMessage) (order.Attributes, error) {
	var wire orderAttributes
	if err := json.Unmarshal(data, &wire); err != nil {
		return order.Attributes{}, ierr.WithError(err).
			WithHint("Order attributes are malformed").
			Mark(ierr.ErrValidation)
	}

	attrs := order.Attributes{
		ProviderID:   providerID,
		Identifier:   wire.Identifier,
		OrderNumber:  wire.OrderNumber.String(),
		ProductID:    wire.FirstOrderItem.ProductID.String(),
		VariantID:    wire.FirstOrderItem.VariantID.String(),
		Currency:     wire.Currency,
		Subtotal:     wire.Subtotal,
		Discount:     wire.DiscountTotal,
		Tax:          wire.Tax,
		Total:        wire.Total,
		TaxName:      wire.TaxName,
		TaxRate:      wire.TaxRate,
		TaxInclusive: wire.TaxInclusive,
		Receipt:      wire.URLs.Receipt,
	}

	if wire.Status != nil {
		status := types.OrderStatus(*wire.Status)
		if wire.Refunded {
			status = types.OrderStatusRefunded
		}
		attrs.Status = &status
	}
	// Older shops omit total; derive it the way the dashboard displays it.
	if attrs.Total == nil && wire.Subtotal != nil && wire.Tax != nil {
		total := *wire.Subtotal + *wire.Tax
		attrs.Total = &total
	}

	if wire.RefundedAt != nil {
		t, err := types.ParseProviderTime(*wire.RefundedAt)
		if err != nil {
			return order.Attributes{}, err
		}
		attrs.RefundedAt = t
	}
	if wire.CreatedAt != nil {
		t, err := types.ParseProviderTime(*wire.CreatedAt)
		if err != nil {
			return order.Attributes{}, err
		}
		attrs.OrderedAt = t
	}

	if err := attrs.Validate(); err != nil {
		return order.Attributes{}, err
	}
	return attrs, nil
}

// customerIDOf extracts the provider customer id from any entity payload.
func customerIDOf(data json.RawMessage) string {
	var wire struct {
		CustomerID types.FlexID `json:"customer_id"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return ""
	}
	return wire.CustomerID.String()
}

var nullLiteral = []byte("null")

// ParseSubscriptionAttributes translates a subscription payload into the
// presence-aware domain attributes. Keys absent from the payload stay absent
// so Sync never clobbers local state with defaults.
func ParseSubscriptionAttributes(data json.RawMessage) (subscription.Attributes, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return subscription.Attributes{}, ierr.WithError(err).
			WithHint("Subscription attributes are malformed").
			Mark(ierr.ErrValidation)
	}

	var attrs subscription.Attributes

	if raw, ok := fields["status"]; ok && !bytes.Equal(raw, nullLiteral) {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return subscription.Attributes{}, ierr.WithError(err).
				WithHint("Subscription status is malformed").
				Mark(ierr.ErrValidation)
		}
		status, err := types.ParseSubscriptionStatus(s)
		if err != nil {
			return subscription.Attributes{}, err
		}
		attrs.Status = subscription.Set(status)
	}

	var err error
	if attrs.ProductID, err = parseIDField(fields, "product_id"); err != nil {
		return subscription.Attributes{}, err
	}
	if attrs.VariantID, err = parseIDField(fields, "variant_id"); err != nil {
		return subscription.Attributes{}, err
	}
	if attrs.CardBrand, err = parseStringField(fields, "card_brand"); err != nil {
		return subscription.Attributes{}, err
	}
	if attrs.CardLastFour, err = parseStringField(fields, "card_last_four"); err != nil {
		return subscription.Attributes{}, err
	}

	if raw, ok := fields["first_subscription_item"]; ok {
		if bytes.Equal(raw, nullLiteral) {
			attrs.ProviderPriceID = subscription.Null[string]()
		} else {
			var item struct {
				PriceID types.FlexID `json:"price_id"`
			}
			if err := json.Unmarshal(raw, &item); err != nil {
				return subscription.Attributes{}, ierr.WithError(err).
					WithHint("Subscription item is malformed").
					Mark(ierr.ErrValidation)
			}
			attrs.ProviderPriceID = subscription.Set(item.PriceID.String())
		}
	}

	if raw, ok := fields["pause"]; ok {
		if bytes.Equal(raw, nullLiteral) {
			attrs.Pause = subscription.Null[subscription.Pause]()
		} else {
			var wire struct {
				Mode      string  `json:"mode"`
				ResumesAt *string `json:"resumes_at"`
			}
			if err := json.Unmarshal(raw, &wire); err != nil {
				return subscription.Attributes{}, ierr.WithError(err).
					WithHint("Subscription pause block is malformed").
					Mark(ierr.ErrValidation)
			}
			mode := types.PauseMode(wire.Mode)
			if err := mode.Validate(); err != nil {
				return subscription.Attributes{}, err
			}
			pause := subscription.Pause{Mode: mode}
			if wire.ResumesAt != nil {
				t, err := types.ParseProviderTime(*wire.ResumesAt)
				if err != nil {
					return subscription.Attributes{}, err
				}
				pause.ResumesAt = t
			}
			attrs.Pause = subscription.Set(pause)
		}
	}

	if attrs.TrialEndsAt, err = parseTimeField(fields, "trial_ends_at"); err != nil {
		return subscription.Attributes{}, err
	}
	if attrs.RenewsAt, err = parseTimeField(fields, "renews_at"); err != nil {
		return subscription.Attributes{}, err
	}
	if attrs.EndsAt, err = parseTimeField(fields, "ends_at"); err != nil {
		return subscription.Attributes{}, err
	}

	return attrs, nil
}

func parseIDField(fields map[string]json.RawMessage, key string) (subscription.Field[string], error) {
	raw, ok := fields[key]
	if !ok {
		return subscription.Field[string]{}, nil
	}
	if bytes.Equal(raw, nullLiteral) {
		return subscription.Null[string](), nil
	}
	var id types.FlexID
	if err := json.Unmarshal(raw, &id); err != nil {
		return subscription.Field[string]{}, ierr.WithError(err).
			WithHintf("Subscription %s is malformed", key).
			Mark(ierr.ErrValidation)
	}
	return subscription.Set(id.String()), nil
}

func parseStringField(fields map[string]json.RawMessage, key string) (subscription.Field[string], error) {
	raw, ok := fields[key]
	if !ok {
		return subscription.Field[string]{}, nil
	}
	if bytes.Equal(raw, nullLiteral) {
		return subscription.Null[string](), nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return subscription.Field[string]{}, ierr.WithError(err).
			WithHintf("Subscription %s is malformed", key).
			Mark(ierr.ErrValidation)
	}
	return subscription.Set(s), nil
}

func parseTimeField(fields map[string]json.RawMessage, key string) (subscription.Field[time.Time], error) {
	raw, ok := fields[key]
	if !ok {
		return subscription.Field[time.Time]{}, nil
	}
	if bytes.Equal(raw, nullLiteral) {
		return subscription.Null[time.Time](), nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return subscription.Field[time.Time]{}, ierr.WithError(err).
			WithHintf("Subscription %s is malformed", key).
			Mark(ierr.ErrValidation)
	}
	t, err := types.ParseProviderTime(s)
	if err != nil {
		return subscription.Field[time.Time]{}, err
	}
	if t == nil {
		return subscription.Null[time.Time](), nil
	}
	return subscription.Set(*t), nil
}

// subscriptionURLs extracts the hosted page links of a subscription payload.
func subscriptionURLs(data json.RawMessage) map[string]string {
	var wire struct {
		URLs map[string]string `json:"urls"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil
	}
	return wire.URLs
}
