package stripe

import (
	"context"
	"time"

	"github.com/flexprice/payments/internal/config"
	"github.com/flexprice/payments/internal/domain/customer"
	"github.com/flexprice/payments/internal/domain/subscription"
	ierr "github.com/flexprice/payments/internal/errors"
	"github.com/flexprice/payments/internal/logger"
	"github.com/flexprice/payments/internal/publisher"
	"github.com/flexprice/payments/internal/service"
	"github.com/flexprice/payments/internal/types"
	"github.com/flexprice/payments/internal/webhook"
)

// Handler processes Stripe webhook payloads. Only the subscription
// lifecycle events are handled; everything else reports ErrNotImplemented
// and is acknowledged without acting.
type Handler struct {
	logger        *logger.Logger
	config        *config.Configuration
	resolver      service.ResolverService
	customers     customer.Repository
	subscriptions subscription.Repository
	events        publisher.EventPublisher

	dispatch map[string]func(ctx context.Context, event *Event, body []byte) error
}

// HandlerParams are the dependencies of the webhook handler.
type HandlerParams struct {
	Logger        *logger.Logger
	Config        *config.Configuration
	Resolver      service.ResolverService
	Customers     customer.Repository
	Subscriptions subscription.Repository
	Events        publisher.EventPublisher
}

func NewHandler(params HandlerParams) *Handler {
	h := &Handler{
		logger:        params.Logger,
		config:        params.Config,
		resolver:      params.Resolver,
		customers:     params.Customers,
		subscriptions: params.Subscriptions,
		events:        params.Events,
	}
	h.dispatch = map[string]func(ctx context.Context, event *Event, body []byte) error{
		"CustomerSubscriptionCreatedEvent": h.handleSubscriptionCreated,
		"CustomerSubscriptionUpdatedEvent": h.handleSubscriptionUpdated,
	}
	return h
}

func (h *Handler) Provider() types.ProviderType {
	return types.ProviderStripe
}

// Handle routes one raw webhook body to its event handler.
func (h *Handler) Handle(ctx context.Context, body []byte) error {
	event, err := ParseEvent(body)
	if err != nil {
		return err
	}
	if event.Type == "" {
		return ierr.NewError("payload carries no event name").
			WithHint("Webhook type field is missing").
			Mark(ierr.ErrInvalidEventName)
	}

	key := webhook.CanonicalEventKey(event.Type)
	handler, ok := h.dispatch[key]
	if !ok {
		return ierr.NewError("no handler for event").
			WithHintf("Event %s has no handler", event.Type).
			Mark(ierr.ErrNotImplemented)
	}

	h.logger.Debugw("handling stripe webhook", "event_type", event.Type)
	return handler(ctx, event, body)
}

func (h *Handler) handleSubscriptionCreated(ctx context.Context, event *Event, body []byte) error {
	obj, err := parseSubscriptionObject(event.Data.Object)
	if err != nil {
		return err
	}

	cust, err := h.resolveBillable(ctx, obj)
	if err != nil {
		return err
	}

	attrs, err := obj.attributes()
	if err != nil {
		return err
	}

	existing, err := h.subscriptions.GetByProviderID(ctx, types.ProviderStripe, obj.ID)
	if err != nil && !ierr.IsNotFound(err) {
		return err
	}
	if existing != nil {
		existing.Sync(attrs)
		if err := h.subscriptions.Update(ctx, existing); err != nil {
			return err
		}
		return h.emit(ctx, types.EventSubscriptionCreated, cust.ID, body)
	}

	now := time.Now().UTC()
	sub := &subscription.Subscription{
		ID:         types.GenerateUUIDWithPrefix(types.UUID_PREFIX_SUBSCRIPTION),
		Type:       subscriptionType(obj.customData()),
		CustomerID: cust.ID,
		Provider:   types.ProviderStripe,
		ProviderID: obj.ID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	sub.Sync(attrs)

	if err := h.subscriptions.Create(ctx, sub); err != nil {
		if ierr.IsAlreadyExists(err) {
			return h.emit(ctx, types.EventSubscriptionCreated, cust.ID, body)
		}
		return err
	}

	// Multi-price subscriptions carry their prices as items.
	if !obj.singlePrice() {
		for _, wireItem := range obj.Items.Data {
			item := &subscription.Item{
				ID:                     types.GenerateUUIDWithPrefix(types.UUID_PREFIX_SUBSCRIPTION_ITEM),
				SubscriptionID:         sub.ID,
				Provider:               types.ProviderStripe,
				ProviderID:             wireItem.ID,
				ProviderSubscriptionID: obj.ID,
				ProviderProductID:      wireItem.Price.Product.String(),
				ProviderPriceID:        wireItem.Price.ID,
				IsUsageBased:           wireItem.usageBased(),
				Quantity:               wireItem.Quantity,
				CreatedAt:              now,
				UpdatedAt:              now,
			}
			if err := h.subscriptions.CreateItem(ctx, item); err != nil {
				return err
			}
		}
	}

	if err := h.adoptCustomerIdentity(ctx, cust, obj); err != nil {
		return err
	}

	return h.emit(ctx, types.EventSubscriptionCreated, cust.ID, body)
}

func (h *Handler) handleSubscriptionUpdated(ctx context.Context, event *Event, body []byte) error {
	obj, err := parseSubscriptionObject(event.Data.Object)
	if err != nil {
		return err
	}

	cust, err := h.resolveBillable(ctx, obj)
	if err != nil {
		return err
	}

	sub, err := h.subscriptions.GetByProviderID(ctx, types.ProviderStripe, obj.ID)
	if err != nil && !ierr.IsNotFound(err) {
		return err
	}
	if sub == nil {
		h.logger.Warnw("webhook for unknown subscription",
			"event_type", event.Type,
			"provider_id", obj.ID,
		)
		return h.emit(ctx, types.EventSubscriptionUpdated, cust.ID, body)
	}

	attrs, err := obj.attributes()
	if err != nil {
		return err
	}

	previousStatus := sub.Status
	sub.Sync(attrs)
	if err := h.subscriptions.Update(ctx, sub); err != nil {
		return err
	}

	if err := h.adoptCustomerIdentity(ctx, cust, obj); err != nil {
		return err
	}

	// The emitted event reflects the observed transition, not Stripe's
	// event type: pending cancellations and resumptions both arrive as
	// generic updates.
	eventName := types.EventSubscriptionUpdated
	switch {
	case previousStatus != types.SubscriptionStatusCanceled && sub.Status == types.SubscriptionStatusCanceled:
		eventName = types.EventSubscriptionCanceled
	case previousStatus == types.SubscriptionStatusCanceled && sub.Status == types.SubscriptionStatusActive:
		eventName = types.EventSubscriptionResumed
	}

	return h.emit(ctx, eventName, sub.CustomerID, body)
}

func (h *Handler) resolveBillable(ctx context.Context, obj *subscriptionObject) (*customer.Customer, error) {
	custom := obj.customData()
	return h.resolver.Resolve(ctx, types.ProviderStripe, service.BillableIdentity{
		BillableID:   custom["billable_id"],
		BillableType: custom["billable_type"],
		ProviderID:   obj.Customer,
	})
}

// adoptCustomerIdentity clears a generic trial and records the provider's
// customer id once a real subscription exists.
func (h *Handler) adoptCustomerIdentity(ctx context.Context, cust *customer.Customer, obj *subscriptionObject) error {
	changed := false
	if cust.TrialEndsAt != nil {
		cust.TrialEndsAt = nil
		changed = true
	}
	if cust.ProviderID == nil && obj.Customer != "" {
		providerID := obj.Customer
		cust.ProviderID = &providerID
		changed = true
	}
	if !changed {
		return nil
	}
	cust.UpdatedAt = time.Now().UTC()
	return h.customers.Update(ctx, cust)
}

func subscriptionType(custom map[string]string) string {
	for _, key := range []string{"subscription_type", "type", "name"} {
		if v := custom[key]; v != "" {
			return v
		}
	}
	return types.DefaultSubscriptionType
}

func (h *Handler) emit(ctx context.Context, eventName string, customerID string, body []byte) error {
	return h.events.Publish(ctx, &types.DomainEvent{
		ID:         types.GenerateUUIDWithPrefix(types.UUID_PREFIX_EVENT),
		EventName:  eventName,
		Provider:   types.ProviderStripe,
		CustomerID: customerID,
		Timestamp:  time.Now().UTC(),
		Payload:    body,
	})
}
