package types

import (
	ierr "github.com/flexprice/payments/internal/errors"
	"github.com/samber/lo"
)

// ProviderType identifies an external payment/subscription platform.
type ProviderType string

const (
	ProviderLemonSqueezy ProviderType = "lemon-squeezy"
	ProviderStripe       ProviderType = "stripe"
)

// AllowedProviders is the closed set of providers this service ships handlers for.
var AllowedProviders = []ProviderType{
	ProviderLemonSqueezy,
	ProviderStripe,
}

func (p ProviderType) String() string {
	return string(p)
}

func (p ProviderType) Validate() error {
	if !lo.Contains(AllowedProviders, p) {
		return ierr.NewError("invalid provider").
			WithHint("Invalid payment provider").
			WithReportableDetails(map[string]any{
				"provider":          p,
				"allowed_providers": AllowedProviders,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}
