package subscription

import (
	"time"

	"github.com/flexprice/payments/internal/types"
)

// Item is one priced line of a multi-price subscription.
type Item struct {
	ID                     string             `db:"id" json:"id"`
	SubscriptionID         string             `db:"subscription_id" json:"subscription_id"`
	Provider               types.ProviderType `db:"provider" json:"provider"`
	ProviderID             string             `db:"provider_id" json:"provider_id"`
	ProviderSubscriptionID string             `db:"provider_subscription_id" json:"provider_subscription_id"`
	ProviderProductID      string             `db:"provider_product_id" json:"provider_product_id"`
	ProviderPriceID        string             `db:"provider_price_id" json:"provider_price_id"`
	IsUsageBased           bool               `db:"is_usage_based" json:"is_usage_based"`
	Quantity               *int64             `db:"quantity" json:"quantity,omitempty"`
	CreatedAt              time.Time          `db:"created_at" json:"created_at"`
	UpdatedAt              time.Time          `db:"updated_at" json:"updated_at"`
}
