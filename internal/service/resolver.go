package service

import (
	"context"
	"time"

	"github.com/flexprice/payments/internal/domain/customer"
	ierr "github.com/flexprice/payments/internal/errors"
	"github.com/flexprice/payments/internal/types"
)

// BillableIdentity is the customer identity carried by a webhook payload,
// the custom data stamped at checkout plus the provider's own customer id.
type BillableIdentity struct {
	BillableID   string
	BillableType string
	ProviderID   string
	Name         string
	Email        string
}

// ResolverService maps inbound webhook identities onto customer rows. It is
// the only place customers are created from webhook traffic, so redeliveries
// and concurrent deliveries converge on one row.
type ResolverService interface {
	// Resolve validates the custom data of a payload and finds or creates
	// the customer it belongs to.
	Resolve(ctx context.Context, provider types.ProviderType, identity BillableIdentity) (*customer.Customer, error)
}

type resolverService struct {
	ServiceParams
}

func NewResolverService(params ServiceParams) ResolverService {
	return &resolverService{
		ServiceParams: params,
	}
}

func (s *resolverService) Resolve(ctx context.Context, provider types.ProviderType, identity BillableIdentity) (*customer.Customer, error) {
	if identity.BillableID == "" || identity.BillableType == "" {
		if !s.Config.Payments.AllowAnonymousBillables {
			return nil, ierr.NewError("payload custom data has no billable identity").
				WithHint("Checkout custom data must carry billable_id and billable_type").
				Mark(ierr.ErrInvalidCustomData)
		}
	}

	cust, err := s.findExisting(ctx, provider, identity)
	if err != nil {
		return nil, err
	}
	if cust == nil {
		cust, err = s.create(ctx, provider, identity)
		if err != nil {
			return nil, err
		}
	}

	// Backfill identity fields the checkout did not know yet. Existing
	// values are never clobbered by later payloads.
	return s.backfill(ctx, cust, identity)
}

func (s *resolverService) findExisting(ctx context.Context, provider types.ProviderType, identity BillableIdentity) (*customer.Customer, error) {
	if identity.BillableID != "" {
		ref := types.BillableRef{Type: identity.BillableType, ID: identity.BillableID}
		cust, err := s.CustomerRepo.GetByBillable(ctx, ref, provider)
		if err == nil {
			return cust, nil
		}
		if !ierr.IsNotFound(err) {
			return nil, err
		}
	}

	if identity.ProviderID != "" {
		cust, err := s.CustomerRepo.GetByProviderID(ctx, provider, identity.ProviderID)
		if err == nil {
			return cust, nil
		}
		if !ierr.IsNotFound(err) {
			return nil, err
		}
	}

	return nil, nil
}

func (s *resolverService) create(ctx context.Context, provider types.ProviderType, identity BillableIdentity) (*customer.Customer, error) {
	now := time.Now().UTC()
	cust := &customer.Customer{
		ID:           types.GenerateUUIDWithPrefix(types.UUID_PREFIX_CUSTOMER),
		BillableType: identity.BillableType,
		BillableID:   identity.BillableID,
		Provider:     provider,
		ProviderID:   types.ToNillableString(identity.ProviderID),
		Name:         identity.Name,
		Email:        identity.Email,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err := s.CustomerRepo.Create(ctx, cust)
	if err == nil {
		s.Logger.Infow("created customer from webhook",
			"customer_id", cust.ID,
			"provider", provider,
			"provider_customer_id", identity.ProviderID,
		)
		return cust, nil
	}
	// A concurrent delivery may have created the row between lookup and
	// insert. Converge on the winner.
	if ierr.IsAlreadyExists(err) {
		existing, lookupErr := s.findExisting(ctx, provider, identity)
		if lookupErr != nil {
			return nil, lookupErr
		}
		if existing != nil {
			return existing, nil
		}
	}
	return nil, err
}

func (s *resolverService) backfill(ctx context.Context, cust *customer.Customer, identity BillableIdentity) (*customer.Customer, error) {
	changed := false
	if cust.Name == "" && identity.Name != "" {
		cust.Name = identity.Name
		changed = true
	}
	if cust.Email == "" && identity.Email != "" {
		cust.Email = identity.Email
		changed = true
	}
	if !changed {
		return cust, nil
	}

	cust.UpdatedAt = time.Now().UTC()
	if err := s.CustomerRepo.Update(ctx, cust); err != nil {
		return nil, err
	}
	return cust, nil
}
