package service

import (
	"context"
	"time"

	"github.com/flexprice/payments/internal/domain/subscription"
	ierr "github.com/flexprice/payments/internal/errors"
	"github.com/flexprice/payments/internal/providers"
	"github.com/flexprice/payments/internal/types"
)

// SubscriptionService issues subscription commands against the provider and
// reconciles the local row with the provider's response. The webhook that
// follows each command is then a no-op redelivery of the same state.
type SubscriptionService interface {
	Get(ctx context.Context, id string) (*subscription.Subscription, error)

	// Cancel schedules cancellation at period end. The subscription stays
	// valid through the grace period.
	Cancel(ctx context.Context, id string) (*subscription.Subscription, error)

	// Resume removes a pending cancellation. Expired subscriptions cannot
	// be resumed; a new checkout is required.
	Resume(ctx context.Context, id string) (*subscription.Subscription, error)

	// Pause suspends billing in void mode, revoking access while paused.
	Pause(ctx context.Context, id string, resumesAt *time.Time) (*subscription.Subscription, error)

	// PauseForFree suspends billing while keeping access.
	PauseForFree(ctx context.Context, id string, resumesAt *time.Time) (*subscription.Subscription, error)

	Unpause(ctx context.Context, id string) (*subscription.Subscription, error)

	// Swap moves the subscription to another product variant with the
	// provider's default proration.
	Swap(ctx context.Context, id string, productID string, variantID string) (*subscription.Subscription, error)

	// SwapAndInvoice swaps and invoices the proration immediately.
	SwapAndInvoice(ctx context.Context, id string, productID string, variantID string) (*subscription.Subscription, error)

	// AnchorBillingCycleOn moves the renewal date to the given epoch. A nil
	// or zero date anchors on now.
	AnchorBillingCycleOn(ctx context.Context, id string, date *int64) (*subscription.Subscription, error)

	// EndTrial ends the trial immediately and starts billing.
	EndTrial(ctx context.Context, id string) (*subscription.Subscription, error)

	// UpdatePaymentMethodURL returns the provider-hosted page where the
	// customer updates the card on file.
	UpdatePaymentMethodURL(ctx context.Context, id string) (string, error)
}

type subscriptionService struct {
	ServiceParams
}

func NewSubscriptionService(params ServiceParams) SubscriptionService {
	return &subscriptionService{
		ServiceParams: params,
	}
}

func (s *subscriptionService) Get(ctx context.Context, id string) (*subscription.Subscription, error) {
	return s.SubscriptionRepo.Get(ctx, id)
}

func (s *subscriptionService) Cancel(ctx context.Context, id string) (*subscription.Subscription, error) {
	return s.command(ctx, id, func(ctx context.Context, client providers.ApiClient, sub *subscription.Subscription) (*providers.SubscriptionData, error) {
		return client.CancelSubscription(ctx, sub.ProviderID)
	})
}

func (s *subscriptionService) Resume(ctx context.Context, id string) (*subscription.Subscription, error) {
	sub, err := s.SubscriptionRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if sub.Expired() {
		return nil, ierr.NewError("cannot resume an expired subscription").
			WithHint("Expired subscriptions require a new checkout").
			WithReportableDetails(map[string]any{
				"subscription_id": sub.ID,
				"status":          sub.Status,
			}).
			Mark(ierr.ErrInvalidOperation)
	}

	return s.applyCommand(ctx, sub, func(ctx context.Context, client providers.ApiClient) (*providers.SubscriptionData, error) {
		return client.ResumeSubscription(ctx, sub.ProviderID)
	})
}

func (s *subscriptionService) Pause(ctx context.Context, id string, resumesAt *time.Time) (*subscription.Subscription, error) {
	return s.command(ctx, id, func(ctx context.Context, client providers.ApiClient, sub *subscription.Subscription) (*providers.SubscriptionData, error) {
		return client.PauseSubscription(ctx, sub.ProviderID, types.PauseModeVoid, resumesAt)
	})
}

func (s *subscriptionService) PauseForFree(ctx context.Context, id string, resumesAt *time.Time) (*subscription.Subscription, error) {
	return s.command(ctx, id, func(ctx context.Context, client providers.ApiClient, sub *subscription.Subscription) (*providers.SubscriptionData, error) {
		return client.PauseSubscription(ctx, sub.ProviderID, types.PauseModeFree, resumesAt)
	})
}

func (s *subscriptionService) Unpause(ctx context.Context, id string) (*subscription.Subscription, error) {
	return s.command(ctx, id, func(ctx context.Context, client providers.ApiClient, sub *subscription.Subscription) (*providers.SubscriptionData, error) {
		return client.UnpauseSubscription(ctx, sub.ProviderID)
	})
}

func (s *subscriptionService) Swap(ctx context.Context, id string, productID string, variantID string) (*subscription.Subscription, error) {
	return s.command(ctx, id, func(ctx context.Context, client providers.ApiClient, sub *subscription.Subscription) (*providers.SubscriptionData, error) {
		return client.SwapSubscription(ctx, sub.ProviderID, productID, variantID, providers.SwapOptions{})
	})
}

func (s *subscriptionService) SwapAndInvoice(ctx context.Context, id string, productID string, variantID string) (*subscription.Subscription, error) {
	return s.command(ctx, id, func(ctx context.Context, client providers.ApiClient, sub *subscription.Subscription) (*providers.SubscriptionData, error) {
		return client.SwapSubscription(ctx, sub.ProviderID, productID, variantID, providers.SwapOptions{
			InvoiceImmediately: true,
		})
	})
}

func (s *subscriptionService) AnchorBillingCycleOn(ctx context.Context, id string, date *int64) (*subscription.Subscription, error) {
	return s.command(ctx, id, func(ctx context.Context, client providers.ApiClient, sub *subscription.Subscription) (*providers.SubscriptionData, error) {
		return client.AnchorSubscriptionBillingCycleOn(ctx, sub.ProviderID, date)
	})
}

func (s *subscriptionService) EndTrial(ctx context.Context, id string) (*subscription.Subscription, error) {
	return s.AnchorBillingCycleOn(ctx, id, nil)
}

func (s *subscriptionService) UpdatePaymentMethodURL(ctx context.Context, id string) (string, error) {
	sub, err := s.SubscriptionRepo.Get(ctx, id)
	if err != nil {
		return "", err
	}

	client, err := s.ProviderClients.ClientFor(sub.Provider)
	if err != nil {
		return "", err
	}

	data, err := client.GetSubscription(ctx, sub.ProviderID)
	if err != nil {
		return "", err
	}

	url, ok := data.URLs["update_payment_method"]
	if !ok || url == "" {
		return "", ierr.NewError("provider exposes no payment method page").
			WithHint("Use the customer portal to update the payment method").
			Mark(ierr.ErrNotFound)
	}
	return url, nil
}

func (s *subscriptionService) command(
	ctx context.Context,
	id string,
	call func(ctx context.Context, client providers.ApiClient, sub *subscription.Subscription) (*providers.SubscriptionData, error),
) (*subscription.Subscription, error) {
	sub, err := s.SubscriptionRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.applyCommand(ctx, sub, func(ctx context.Context, client providers.ApiClient) (*providers.SubscriptionData, error) {
		return call(ctx, client, sub)
	})
}

// applyCommand runs one provider call and reconciles the local row with the
// returned state.
func (s *subscriptionService) applyCommand(
	ctx context.Context,
	sub *subscription.Subscription,
	call func(ctx context.Context, client providers.ApiClient) (*providers.SubscriptionData, error),
) (*subscription.Subscription, error) {
	client, err := s.ProviderClients.ClientFor(sub.Provider)
	if err != nil {
		return nil, err
	}

	data, err := call(ctx, client)
	if err != nil {
		return nil, err
	}

	sub.Sync(data.Attributes)
	if err := s.SubscriptionRepo.Update(ctx, sub); err != nil {
		return nil, err
	}

	s.Logger.Debugw("synced subscription after provider command",
		"subscription_id", sub.ID,
		"provider", sub.Provider,
		"status", sub.Status,
	)
	return sub, nil
}
