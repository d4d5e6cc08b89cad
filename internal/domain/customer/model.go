package customer

import (
	"time"

	"github.com/flexprice/payments/internal/types"
)

// Customer links a billable entity of the surrounding application to its
// identity at the payment provider. The provider id is nullable because a
// customer row may exist locally before the provider side is created.
type Customer struct {
	ID           string             `db:"id" json:"id"`
	BillableType string             `db:"billable_type" json:"billable_type"`
	BillableID   string             `db:"billable_id" json:"billable_id"`
	Provider     types.ProviderType `db:"provider" json:"provider"`
	ProviderID   *string            `db:"provider_id" json:"provider_id,omitempty"`
	Name         string             `db:"name" json:"name"`
	Email        string             `db:"email" json:"email"`
	TrialEndsAt  *time.Time         `db:"trial_ends_at" json:"trial_ends_at,omitempty"`
	CreatedAt    time.Time          `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time          `db:"updated_at" json:"updated_at"`
}

// BillableRef returns the polymorphic reference this customer belongs to.
func (c *Customer) BillableRef() types.BillableRef {
	return types.BillableRef{Type: c.BillableType, ID: c.BillableID}
}

// OnGenericTrial reports whether the customer is within a trial period that
// exists only locally, before any subscription was created at the provider.
func (c *Customer) OnGenericTrial() bool {
	return c.TrialEndsAt != nil && c.TrialEndsAt.After(time.Now().UTC())
}

// HasExpiredGenericTrial reports whether a local trial was set and has passed.
func (c *Customer) HasExpiredGenericTrial() bool {
	return c.TrialEndsAt != nil && c.TrialEndsAt.Before(time.Now().UTC())
}
