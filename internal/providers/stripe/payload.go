package stripe

import (
	"encoding/json"
	"time"

	"github.com/flexprice/payments/internal/domain/subscription"
	ierr "github.com/flexprice/payments/internal/errors"
	"github.com/flexprice/payments/internal/types"
)

// Event is the outer shape of every Stripe webhook.
type Event struct {
	Type string `json:"type"`
	Data struct {
		Object json.RawMessage `json:"object"`
	} `json:"data"`
}

// ParseEvent decodes a raw webhook body.
func ParseEvent(body []byte) (*Event, error) {
	var event Event
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Webhook body is not valid JSON").
			Mark(ierr.ErrValidation)
	}
	return &event, nil
}

// subscriptionObject is the wire shape of a subscription in webhook events.
// Timestamps are epoch seconds. The current period end lives at the top
// level or on items depending on the account's API version.
type subscriptionObject struct {
	ID                string            `json:"id"`
	Customer          string            `json:"customer"`
	Status            string            `json:"status"`
	Metadata          map[string]string `json:"metadata"`
	TrialEnd          *int64            `json:"trial_end"`
	CancelAtPeriodEnd bool              `json:"cancel_at_period_end"`
	CancelAt          *int64            `json:"cancel_at"`
	CanceledAt        *int64            `json:"canceled_at"`
	CurrentPeriodEnd  *int64            `json:"current_period_end"`
	Items             struct {
		Data []subscriptionItemObject `json:"data"`
	} `json:"items"`
}

// Stripe reports "metered" under price.recurring.usage_type for prices
// billed on reported usage.
const usageTypeMetered = "metered"

type subscriptionItemObject struct {
	ID               string `json:"id"`
	CurrentPeriodEnd *int64 `json:"current_period_end"`
	Quantity         *int64 `json:"quantity"`
	Price            struct {
		ID        string       `json:"id"`
		Product   types.FlexID `json:"product"`
		Recurring struct {
			UsageType string `json:"usage_type"`
		} `json:"recurring"`
	} `json:"price"`
}

func (i *subscriptionItemObject) usageBased() bool {
	return i.Price.Recurring.UsageType == usageTypeMetered
}

func parseSubscriptionObject(data json.RawMessage) (*subscriptionObject, error) {
	var obj subscriptionObject
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Subscription object is malformed").
			Mark(ierr.ErrValidation)
	}
	return &obj, nil
}

// customData extracts the checkout custom data. It is carried either as a
// JSON string under the custom_data metadata key or as flat metadata keys.
func (o *subscriptionObject) customData() map[string]string {
	if raw, ok := o.Metadata["custom_data"]; ok {
		var custom map[string]string
		if err := json.Unmarshal([]byte(raw), &custom); err == nil {
			return custom
		}
	}
	return o.Metadata
}

func (o *subscriptionObject) singlePrice() bool {
	return len(o.Items.Data) == 1
}

func (o *subscriptionObject) currentPeriodEnd() *time.Time {
	if o.CurrentPeriodEnd != nil {
		t := types.FromEpoch(*o.CurrentPeriodEnd)
		return &t
	}
	var latest *time.Time
	for _, item := range o.Items.Data {
		if item.CurrentPeriodEnd == nil {
			continue
		}
		t := types.FromEpoch(*item.CurrentPeriodEnd)
		if latest == nil || t.After(*latest) {
			latest = &t
		}
	}
	return latest
}

func (o *subscriptionObject) trialEnd() *time.Time {
	if o.TrialEnd == nil {
		return nil
	}
	t := types.FromEpoch(*o.TrialEnd)
	return &t
}

// deriveEndsAt computes the local end date from Stripe's cancellation flags.
// Stripe keeps status "active" for pending cancellations, so the end date is
// the only cancellation signal on the wire.
func (o *subscriptionObject) deriveEndsAt(onTrial bool) *time.Time {
	if o.CancelAtPeriodEnd {
		if onTrial && o.TrialEnd != nil {
			return o.trialEnd()
		}
		return o.currentPeriodEnd()
	}
	if o.CancelAt != nil {
		t := types.FromEpoch(*o.CancelAt)
		return &t
	}
	if o.CanceledAt != nil {
		t := types.FromEpoch(*o.CanceledAt)
		return &t
	}
	return nil
}

// attributes translates the wire object into domain attributes. Stripe
// subscription events carry full snapshots, so every field is present and
// absent values clear local state.
func (o *subscriptionObject) attributes() (subscription.Attributes, error) {
	status, err := types.ParseSubscriptionStatus(o.Status)
	if err != nil {
		return subscription.Attributes{}, err
	}

	endsAt := o.deriveEndsAt(status == types.SubscriptionStatusOnTrial)
	// A set end date means the subscription is on its way out regardless of
	// the status string Stripe reports.
	if endsAt != nil {
		status = types.SubscriptionStatusCanceled
	}

	attrs := subscription.Attributes{
		Status: subscription.Set(status),
	}

	if o.singlePrice() {
		item := o.Items.Data[0]
		attrs.ProductID = subscription.Set(item.Price.Product.String())
		attrs.VariantID = subscription.Set(item.Price.ID)
		attrs.ProviderPriceID = subscription.Set(item.Price.ID)
	} else {
		attrs.ProductID = subscription.Null[string]()
		attrs.VariantID = subscription.Null[string]()
		attrs.ProviderPriceID = subscription.Null[string]()
	}

	if trialEnd := o.trialEnd(); trialEnd != nil {
		attrs.TrialEndsAt = subscription.Set(*trialEnd)
	} else {
		attrs.TrialEndsAt = subscription.Null[time.Time]()
	}

	if endsAt != nil {
		attrs.EndsAt = subscription.Set(*endsAt)
	} else {
		attrs.EndsAt = subscription.Null[time.Time]()
	}

	return attrs, nil
}
