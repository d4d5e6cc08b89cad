package subscription

import (
	"time"

	"github.com/flexprice/payments/internal/types"
)

// Subscription mirrors a recurring billing agreement at the payment provider.
// A customer may hold several concurrent subscriptions distinguished by Type.
type Subscription struct {
	ID         string             `db:"id" json:"id"`
	Type       string             `db:"type" json:"type"`
	CustomerID string             `db:"customer_id" json:"customer_id"`
	Provider   types.ProviderType `db:"provider" json:"provider"`
	ProviderID string             `db:"provider_id" json:"provider_id"`

	Status types.SubscriptionStatus `db:"status" json:"status"`

	// ProductID and VariantID identify the purchased plan. They are nil on
	// multi-price subscriptions, where Items carries the per-price detail.
	ProductID       *string `db:"product_id" json:"product_id,omitempty"`
	VariantID       *string `db:"variant_id" json:"variant_id,omitempty"`
	ProviderPriceID *string `db:"provider_price_id" json:"provider_price_id,omitempty"`

	CardBrand    *string `db:"card_brand" json:"card_brand,omitempty"`
	CardLastFour *string `db:"card_last_four" json:"card_last_four,omitempty"`

	PauseMode      *types.PauseMode `db:"pause_mode" json:"pause_mode,omitempty"`
	PauseResumesAt *time.Time       `db:"pause_resumes_at" json:"pause_resumes_at,omitempty"`

	TrialEndsAt *time.Time `db:"trial_ends_at" json:"trial_ends_at,omitempty"`
	RenewsAt    *time.Time `db:"renews_at" json:"renews_at,omitempty"`
	EndsAt      *time.Time `db:"ends_at" json:"ends_at,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`

	// Items is loaded alongside the subscription for multi-price plans.
	Items []*Item `db:"-" json:"items,omitempty"`
}

func (s *Subscription) OnTrial() bool {
	return s.Status == types.SubscriptionStatusOnTrial
}

func (s *Subscription) Active() bool {
	return s.Status == types.SubscriptionStatusActive
}

func (s *Subscription) Paused() bool {
	return s.Status == types.SubscriptionStatusPaused
}

func (s *Subscription) PastDue() bool {
	return s.Status == types.SubscriptionStatusPastDue
}

func (s *Subscription) Unpaid() bool {
	return s.Status == types.SubscriptionStatusUnpaid
}

func (s *Subscription) Canceled() bool {
	return s.Status == types.SubscriptionStatusCanceled
}

func (s *Subscription) Expired() bool {
	return s.Status == types.SubscriptionStatusExpired
}

// Valid reports whether the subscription still grants access. Canceled
// subscriptions stay valid until they expire, and free-mode pauses keep
// access while billing is suspended.
func (s *Subscription) Valid() bool {
	return s.Active() ||
		s.OnTrial() ||
		s.PastDue() ||
		s.Canceled() ||
		(s.Paused() && s.PauseMode != nil && *s.PauseMode == types.PauseModeFree)
}

// OnGracePeriod reports whether the subscription is canceled but has not
// reached its end date yet.
func (s *Subscription) OnGracePeriod() bool {
	return s.Canceled() && s.EndsAt != nil && s.EndsAt.After(time.Now().UTC())
}

// OnPausedPeriod reports whether the subscription is paused with a scheduled
// resumption still in the future.
func (s *Subscription) OnPausedPeriod() bool {
	return s.Paused() && s.PauseResumesAt != nil && s.PauseResumesAt.After(time.Now().UTC())
}

// HasExpiredTrial reports whether a trial was set and has passed.
func (s *Subscription) HasExpiredTrial() bool {
	return s.TrialEndsAt != nil && s.TrialEndsAt.Before(time.Now().UTC())
}

func (s *Subscription) HasProduct(productID string) bool {
	return s.ProductID != nil && *s.ProductID == productID
}

func (s *Subscription) HasVariant(variantID string) bool {
	return s.VariantID != nil && *s.VariantID == variantID
}

// HasMultiplePrices reports whether the subscription spans several prices.
// Single-price subscriptions carry the price id on the subscription itself.
func (s *Subscription) HasMultiplePrices() bool {
	return s.ProviderPriceID == nil
}

// HasPrice reports whether the subscription includes the given provider
// price, looking through items on multi-price subscriptions.
func (s *Subscription) HasPrice(priceID string) bool {
	if s.HasMultiplePrices() {
		for _, item := range s.Items {
			if item.ProviderPriceID == priceID {
				return true
			}
		}
		return false
	}
	return *s.ProviderPriceID == priceID
}
