package dto

import "time"

// PauseRequest suspends billing, optionally until a scheduled resumption.
type PauseRequest struct {
	// Free keeps access while billing is suspended.
	Free      bool       `json:"free"`
	ResumesAt *time.Time `json:"resumes_at"`
}

// SwapRequest moves a subscription to another product variant.
type SwapRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	VariantID string `json:"variant_id" binding:"required"`
	// Invoice charges the proration immediately instead of rolling it into
	// the next renewal.
	Invoice bool `json:"invoice"`
}

// AnchorRequest moves the billing cycle anchor. A nil date anchors on now,
// which also ends a running trial.
type AnchorRequest struct {
	Date *int64 `json:"date"`
}

// PaymentMethodResponse carries the provider-hosted card update URL.
type PaymentMethodResponse struct {
	URL string `json:"url"`
}
