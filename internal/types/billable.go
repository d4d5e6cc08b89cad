package types

// Billable is the capability any application entity must implement to own
// billing relationships (customers, orders, subscriptions).
type Billable interface {
	GetID() string
	GetMorphLabel() string
}

// BillableRef is a tagged reference to an application entity. It replaces
// runtime type inspection with an explicit (type, id) pair.
type BillableRef struct {
	Type string `json:"type" db:"billable_type"`
	ID   string `json:"id" db:"billable_id"`
}

// NewBillableRef builds a reference from any billable entity.
func NewBillableRef(b Billable) BillableRef {
	if b == nil {
		return BillableRef{}
	}
	return BillableRef{Type: b.GetMorphLabel(), ID: b.GetID()}
}

// IsZero reports whether the reference points at nothing, which is the case
// for anonymous purchases.
func (r BillableRef) IsZero() bool {
	return r.ID == "" && r.Type == ""
}
