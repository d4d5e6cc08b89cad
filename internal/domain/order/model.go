package order

import (
	"time"

	"github.com/flexprice/payments/internal/types"
)

// Order is a one-off purchase mirrored from the payment provider. All
// monetary amounts are integer minor units in Currency.
type Order struct {
	ID              string             `db:"id" json:"id"`
	CustomerID      string             `db:"customer_id" json:"customer_id"`
	Provider        types.ProviderType `db:"provider" json:"provider"`
	ProviderID      string             `db:"provider_id" json:"provider_id"`
	Identifier      string             `db:"identifier" json:"identifier"`
	OrderNumber     string             `db:"order_number" json:"order_number"`
	ProductID       string             `db:"product_id" json:"product_id"`
	VariantID       string             `db:"variant_id" json:"variant_id"`
	Status          types.OrderStatus  `db:"status" json:"status"`
	Currency        string             `db:"currency" json:"currency"`
	Subtotal        int64              `db:"subtotal" json:"subtotal"`
	Discount        int64              `db:"discount" json:"discount"`
	Tax             int64              `db:"tax" json:"tax"`
	Total           int64              `db:"total" json:"total"`
	TaxName         string             `db:"tax_name" json:"tax_name"`
	TaxRate         string             `db:"tax_rate" json:"tax_rate"`
	TaxInclusive    bool               `db:"tax_inclusive" json:"tax_inclusive"`
	RefundedAmount  int64              `db:"refunded_amount" json:"refunded_amount"`
	RefundedAt      *time.Time         `db:"refunded_at" json:"refunded_at,omitempty"`
	Receipt         *string            `db:"receipt" json:"receipt,omitempty"`
	OrderedAt       time.Time          `db:"ordered_at" json:"ordered_at"`
	CreatedAt       time.Time          `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time          `db:"updated_at" json:"updated_at"`
}

// Paid reports whether the order reached a paid state.
func (o *Order) Paid() bool {
	return o.Status == types.OrderStatusPaid
}

// Refunded reports whether the order was refunded.
func (o *Order) Refunded() bool {
	return o.Status == types.OrderStatusRefunded
}

// Pending reports whether payment is still outstanding.
func (o *Order) Pending() bool {
	return o.Status == types.OrderStatusPending
}
