package dto

import (
	"time"

	"github.com/flexprice/payments/internal/service"
	"github.com/flexprice/payments/internal/types"
)

// BillableRequest identifies the billable entity a billing call acts on.
type BillableRequest struct {
	BillableID   string `json:"billable_id" form:"billable_id" binding:"required"`
	BillableType string `json:"billable_type" form:"billable_type" binding:"required"`
}

func (r BillableRequest) Ref() types.BillableRef {
	return types.BillableRef{Type: r.BillableType, ID: r.BillableID}
}

// CreateCustomerRequest eagerly creates the local customer row.
type CreateCustomerRequest struct {
	BillableRequest
	Name        string     `json:"name"`
	Email       string     `json:"email"`
	TrialEndsAt *time.Time `json:"trial_ends_at"`
}

// CheckoutRequest starts a provider checkout for a billable.
type CheckoutRequest struct {
	BillableRequest
	VariantID        string            `json:"variant_id" binding:"required"`
	SubscriptionType string            `json:"subscription_type"`
	Name             string            `json:"name"`
	Email            string            `json:"email"`
	Country          string            `json:"country"`
	Zip              string            `json:"zip"`
	TaxNumber        string            `json:"tax_number"`
	DiscountCode     string            `json:"discount_code"`
	CustomPrice      *int64            `json:"custom_price"`
	RedirectURL      string            `json:"redirect_url"`
	ExpiresAt        *time.Time        `json:"expires_at"`
	Custom           map[string]string `json:"custom"`
}

func (r CheckoutRequest) ToParams() service.CheckoutParams {
	return service.CheckoutParams{
		VariantID:        r.VariantID,
		SubscriptionType: r.SubscriptionType,
		Name:             r.Name,
		Email:            r.Email,
		Country:          r.Country,
		Zip:              r.Zip,
		TaxNumber:        r.TaxNumber,
		DiscountCode:     r.DiscountCode,
		CustomPrice:      r.CustomPrice,
		RedirectURL:      r.RedirectURL,
		ExpiresAt:        r.ExpiresAt,
		Custom:           r.Custom,
	}
}

// CheckoutResponse carries the provider-hosted URL to redirect the buyer to.
type CheckoutResponse struct {
	URL string `json:"url"`
}

// PortalResponse carries the customer portal URL.
type PortalResponse struct {
	URL string `json:"url"`
}

// SubscribedResponse reports the access check outcome.
type SubscribedResponse struct {
	Subscribed bool `json:"subscribed"`
}
