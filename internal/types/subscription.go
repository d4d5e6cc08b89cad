package types

import (
	ierr "github.com/flexprice/payments/internal/errors"
	"github.com/samber/lo"
)

// DefaultSubscriptionType is used when checkout custom data carries no
// explicit subscription type. A customer may hold several concurrent
// subscriptions distinguished by type (e.g. "default", "addon").
const DefaultSubscriptionType = "default"

// SubscriptionStatus is the lifecycle status of a subscription.
// The set is closed; unknown provider values are rejected at the
// deserialization boundary instead of being stored verbatim.
type SubscriptionStatus string

const (
	SubscriptionStatusOnTrial  SubscriptionStatus = "on_trial"
	SubscriptionStatusActive   SubscriptionStatus = "active"
	SubscriptionStatusPaused   SubscriptionStatus = "paused"
	SubscriptionStatusPastDue  SubscriptionStatus = "past_due"
	SubscriptionStatusUnpaid   SubscriptionStatus = "unpaid"
	SubscriptionStatusCanceled SubscriptionStatus = "canceled"
	SubscriptionStatusExpired  SubscriptionStatus = "expired"
)

func (s SubscriptionStatus) String() string {
	return string(s)
}

func (s SubscriptionStatus) Validate() error {
	allowed := []SubscriptionStatus{
		SubscriptionStatusOnTrial,
		SubscriptionStatusActive,
		SubscriptionStatusPaused,
		SubscriptionStatusPastDue,
		SubscriptionStatusUnpaid,
		SubscriptionStatusCanceled,
		SubscriptionStatusExpired,
	}
	if !lo.Contains(allowed, s) {
		return ierr.NewError("invalid subscription status").
			WithHint("Invalid subscription status").
			WithReportableDetails(map[string]any{
				"status":         s,
				"allowed_status": allowed,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// ParseSubscriptionStatus normalizes a provider status string into the local
// closed enum. Lemon Squeezy spells cancellation with a double l and Stripe
// reports trials as "trialing"; both normalize here.
func ParseSubscriptionStatus(raw string) (SubscriptionStatus, error) {
	switch raw {
	case "on_trial", "trialing":
		return SubscriptionStatusOnTrial, nil
	case "active":
		return SubscriptionStatusActive, nil
	case "paused":
		return SubscriptionStatusPaused, nil
	case "past_due":
		return SubscriptionStatusPastDue, nil
	case "unpaid", "incomplete":
		return SubscriptionStatusUnpaid, nil
	case "canceled", "cancelled":
		return SubscriptionStatusCanceled, nil
	case "expired", "incomplete_expired":
		return SubscriptionStatusExpired, nil
	}
	return "", ierr.NewError("unknown subscription status").
		WithHint("Provider sent a subscription status this service does not recognize").
		WithReportableDetails(map[string]any{"status": raw}).
		Mark(ierr.ErrValidation)
}

// PauseMode is the billing treatment of a paused subscription.
// "void" suspends access, "free" keeps the subscription usable while paused.
type PauseMode string

const (
	PauseModeVoid PauseMode = "void"
	PauseModeFree PauseMode = "free"
)

func (m PauseMode) String() string {
	return string(m)
}

func (m PauseMode) Validate() error {
	allowed := []PauseMode{PauseModeVoid, PauseModeFree}
	if !lo.Contains(allowed, m) {
		return ierr.NewError("invalid pause mode").
			WithHint("Invalid pause mode").
			WithReportableDetails(map[string]any{
				"mode":          m,
				"allowed_modes": allowed,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}
