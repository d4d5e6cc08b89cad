package subscription

import (
	"time"

	"github.com/flexprice/payments/internal/types"
)

// Field carries one attribute of a provider payload and records whether the
// key was present at all and whether it was an explicit null. Subscription
// payloads are deltas in practice; absent keys must not clobber local state
// while explicit nulls must clear it.
type Field[T any] struct {
	Present bool
	Null    bool
	Value   T
}

// Set returns a field carrying a value.
func Set[T any](v T) Field[T] {
	return Field[T]{Present: true, Value: v}
}

// Null returns a field that was present as an explicit null.
func Null[T any]() Field[T] {
	return Field[T]{Present: true, Null: true}
}

// Pause is the pause block of a subscription payload.
type Pause struct {
	Mode      types.PauseMode
	ResumesAt *time.Time
}

// Attributes is the provider-agnostic projection of a subscription payload.
// Providers translate their wire formats into this before calling Sync.
type Attributes struct {
	Status          Field[types.SubscriptionStatus]
	ProductID       Field[string]
	VariantID       Field[string]
	ProviderPriceID Field[string]
	CardBrand       Field[string]
	CardLastFour    Field[string]
	Pause           Field[Pause]
	TrialEndsAt     Field[time.Time]
	RenewsAt        Field[time.Time]
	EndsAt          Field[time.Time]
}

// Sync applies a provider payload onto the subscription. Absent fields keep
// their local values. Explicit nulls clear nullable fields. A null status is
// treated as absent since status can never be cleared.
func (s *Subscription) Sync(a Attributes) {
	if a.Status.Present && !a.Status.Null {
		s.Status = a.Status.Value
	}
	if a.ProductID.Present {
		if a.ProductID.Null {
			s.ProductID = nil
		} else {
			v := a.ProductID.Value
			s.ProductID = &v
		}
	}
	if a.VariantID.Present {
		if a.VariantID.Null {
			s.VariantID = nil
		} else {
			v := a.VariantID.Value
			s.VariantID = &v
		}
	}
	if a.ProviderPriceID.Present {
		if a.ProviderPriceID.Null {
			s.ProviderPriceID = nil
		} else {
			v := a.ProviderPriceID.Value
			s.ProviderPriceID = &v
		}
	}
	if a.CardBrand.Present {
		if a.CardBrand.Null {
			s.CardBrand = nil
		} else {
			v := a.CardBrand.Value
			s.CardBrand = &v
		}
	}
	if a.CardLastFour.Present {
		if a.CardLastFour.Null {
			s.CardLastFour = nil
		} else {
			v := a.CardLastFour.Value
			s.CardLastFour = &v
		}
	}
	if a.Pause.Present {
		if a.Pause.Null {
			s.PauseMode = nil
			s.PauseResumesAt = nil
		} else {
			mode := a.Pause.Value.Mode
			s.PauseMode = &mode
			s.PauseResumesAt = a.Pause.Value.ResumesAt
		}
	}
	s.TrialEndsAt = applyTime(a.TrialEndsAt, s.TrialEndsAt)
	s.RenewsAt = applyTime(a.RenewsAt, s.RenewsAt)
	s.EndsAt = applyTime(a.EndsAt, s.EndsAt)
	s.UpdatedAt = time.Now().UTC()
}

func applyTime(f Field[time.Time], current *time.Time) *time.Time {
	if !f.Present {
		return current
	}
	if f.Null {
		return nil
	}
	v := f.Value.UTC()
	return &v
}
