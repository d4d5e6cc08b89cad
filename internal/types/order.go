package types

import (
	ierr "github.com/flexprice/payments/internal/errors"
	"github.com/samber/lo"
)

// OrderStatus is the lifecycle status of a one-off purchase.
type OrderStatus string

const (
	OrderStatusPending  OrderStatus = "pending"
	OrderStatusFailed   OrderStatus = "failed"
	OrderStatusPaid     OrderStatus = "paid"
	OrderStatusRefunded OrderStatus = "refunded"
)

func (s OrderStatus) String() string {
	return string(s)
}

func (s OrderStatus) Validate() error {
	allowed := []OrderStatus{
		OrderStatusPending,
		OrderStatusFailed,
		OrderStatusPaid,
		OrderStatusRefunded,
	}
	if !lo.Contains(allowed, s) {
		return ierr.NewError("invalid order status").
			WithHint("Invalid order status").
			WithReportableDetails(map[string]any{
				"status":         s,
				"allowed_status": allowed,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}
