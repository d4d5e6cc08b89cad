package order

import (
	"time"

	ierr "github.com/flexprice/payments/internal/errors"
	"github.com/flexprice/payments/internal/types"
)

// Attributes is the provider-agnostic projection of an order payload that
// providers translate their webhooks into. Financial fields are pointers so
// a provider payload that silently drops one fails Validate instead of
// zeroing a stored amount.
type Attributes struct {
	ProviderID  string
	Identifier  string
	OrderNumber string
	ProductID   string
	VariantID   string
	Status      *types.OrderStatus
	Currency    *string
	Subtotal    *int64
	Discount    *int64
	Tax         *int64
	Total       *int64

	TaxName      string
	TaxRate      string
	TaxInclusive bool

	RefundedAmount *int64
	RefundedAt     *time.Time
	Receipt        *string
	OrderedAt      *time.Time
}

// Validate rejects payloads that omit the financial core of an order.
// Provider payload contracts include these on every order event, so absence
// means a malformed or truncated payload rather than a deliberate omission.
func (a Attributes) Validate() error {
	missing := []string{}
	if a.ProviderID == "" {
		missing = append(missing, "provider_id")
	}
	if a.Status == nil {
		missing = append(missing, "status")
	}
	if a.Currency == nil {
		missing = append(missing, "currency")
	}
	if a.Subtotal == nil {
		missing = append(missing, "subtotal")
	}
	if a.Total == nil {
		missing = append(missing, "total")
	}
	if len(missing) > 0 {
		return ierr.NewError("order payload missing required fields").
			WithHint("Provider payload omitted financial fields").
			WithReportableDetails(map[string]any{"missing": missing}).
			Mark(ierr.ErrValidation)
	}
	if err := a.Status.Validate(); err != nil {
		return err
	}
	return nil
}

// Sync overwrites the order with the provider's view of it. Attributes must
// be validated first; Sync applies every field unconditionally because order
// payloads are full snapshots, not deltas.
func (o *Order) Sync(a Attributes) {
	o.ProviderID = a.ProviderID
	if a.Identifier != "" {
		o.Identifier = a.Identifier
	}
	if a.OrderNumber != "" {
		o.OrderNumber = a.OrderNumber
	}
	if a.ProductID != "" {
		o.ProductID = a.ProductID
	}
	if a.VariantID != "" {
		o.VariantID = a.VariantID
	}
	o.Status = *a.Status
	o.Currency = *a.Currency
	o.Subtotal = *a.Subtotal
	o.Total = *a.Total
	if a.Discount != nil {
		o.Discount = *a.Discount
	}
	if a.Tax != nil {
		o.Tax = *a.Tax
	}
	o.TaxName = a.TaxName
	o.TaxRate = a.TaxRate
	o.TaxInclusive = a.TaxInclusive
	if a.RefundedAmount != nil {
		o.RefundedAmount = *a.RefundedAmount
	}
	if a.RefundedAt != nil {
		o.RefundedAt = a.RefundedAt
	}
	if a.Receipt != nil {
		o.Receipt = a.Receipt
	}
	if a.OrderedAt != nil {
		o.OrderedAt = *a.OrderedAt
	}
	o.UpdatedAt = time.Now().UTC()
}
