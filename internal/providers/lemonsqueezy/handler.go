package lemonsqueezy

import (
	"context"
	"encoding/json"
	"time"

	"github.com/flexprice/payments/internal/config"
	"github.com/flexprice/payments/internal/domain/customer"
	"github.com/flexprice/payments/internal/domain/order"
	"github.com/flexprice/payments/internal/domain/subscription"
	ierr "github.com/flexprice/payments/internal/errors"
	"github.com/flexprice/payments/internal/logger"
	"github.com/flexprice/payments/internal/publisher"
	"github.com/flexprice/payments/internal/service"
	"github.com/flexprice/payments/internal/types"
	"github.com/flexprice/payments/internal/webhook"
)

// Handler processes Lemon Squeezy webhook payloads. Each event maps to an
// explicit entry in the dispatch table; anything else reports
// ErrNotImplemented so the pipeline can acknowledge without acting.
type Handler struct {
	logger        *logger.Logger
	config        *config.Configuration
	resolver      service.ResolverService
	customers     customer.Repository
	orders        order.Repository
	subscriptions subscription.Repository
	events        publisher.EventPublisher

	dispatch map[string]func(ctx context.Context, payload *WebhookPayload, body []byte) error
}

// HandlerParams are the dependencies of the webhook handler.
type HandlerParams struct {
	Logger        *logger.Logger
	Config        *config.Configuration
	Resolver      service.ResolverService
	Customers     customer.Repository
	Orders        order.Repository
	Subscriptions subscription.Repository
	Events        publisher.EventPublisher
}

func NewHandler(params HandlerParams) *Handler {
	h := &Handler{
		logger:        params.Logger,
		config:        params.Config,
		resolver:      params.Resolver,
		customers:     params.Customers,
		orders:        params.Orders,
		subscriptions: params.Subscriptions,
		events:        params.Events,
	}
	h.dispatch = map[string]func(ctx context.Context, payload *WebhookPayload, body []byte) error{
		"OrderCreatedEvent":                 h.handleOrderCreated,
		"OrderRefundedEvent":                h.handleOrderRefunded,
		"SubscriptionCreatedEvent":          h.handleSubscriptionCreated,
		"SubscriptionUpdatedEvent":          h.transitionHandler(types.EventSubscriptionUpdated),
		// Lemon Squeezy spells cancellation with a double l on the wire.
		// Both spellings are registered so a provider-side rename cannot
		// silently turn cancellations into not-implemented outcomes.
		"SubscriptionCancelledEvent":        h.transitionHandler(types.EventSubscriptionCanceled),
		"SubscriptionCanceledEvent":         h.transitionHandler(types.EventSubscriptionCanceled),
		"SubscriptionResumedEvent":          h.transitionHandler(types.EventSubscriptionResumed),
		"SubscriptionExpiredEvent":          h.transitionHandler(types.EventSubscriptionExpired),
		"SubscriptionPausedEvent":           h.transitionHandler(types.EventSubscriptionPaused),
		"SubscriptionUnpausedEvent":         h.transitionHandler(types.EventSubscriptionUnpaused),
		"SubscriptionPaymentSuccessEvent":   h.paymentHandler(types.EventSubscriptionPaymentSuccess),
		"SubscriptionPaymentFailedEvent":    h.paymentHandler(types.EventSubscriptionPaymentFailed),
		"SubscriptionPaymentRecoveredEvent": h.paymentHandler(types.EventSubscriptionPaymentRecovered),
		"LicenseKeyCreatedEvent":            h.licenseKeyHandler(types.EventLicenseKeyCreated),
		"LicenseKeyUpdatedEvent":            h.licenseKeyHandler(types.EventLicenseKeyUpdated),
	}
	return h
}

func (h *Handler) Provider() types.ProviderType {
	return types.ProviderLemonSqueezy
}

// Handle routes one raw webhook body to its event handler.
func (h *Handler) Handle(ctx context.Context, body []byte) error {
	payload, err := ParsePayload(body)
	if err != nil {
		return err
	}
	if payload.Meta.EventName == "" {
		return ierr.NewError("payload carries no event name").
			WithHint("Webhook meta.event_name is missing").
			Mark(ierr.ErrInvalidEventName)
	}

	key := webhook.CanonicalEventKey(payload.Meta.EventName)
	handler, ok := h.dispatch[key]
	if !ok {
		return ierr.NewError("no handler for event").
			WithHintf("Event %s has no handler", payload.Meta.EventName).
			Mark(ierr.ErrNotImplemented)
	}

	h.logger.Debugw("handling lemon squeezy webhook",
		"event_name", payload.Meta.EventName,
		"resource_id", payload.Data.ID,
	)
	return handler(ctx, payload, body)
}

func (h *Handler) handleOrderCreated(ctx context.Context, payload *WebhookPayload, body []byte) error {
	cust, err := h.resolveBillable(ctx, payload)
	if err != nil {
		return err
	}

	attrs, err := ParseOrderAttributes(payload.Data.ID, payload.Data.Attributes)
	if err != nil {
		return err
	}

	// Redeliveries and concurrent deliveries of the same order must not
	// insert twice. The existing row is re-synced instead.
	existing, err := h.orders.GetByProviderID(ctx, types.ProviderLemonSqueezy, payload.Data.ID)
	if err != nil && !ierr.IsNotFound(err) {
		return err
	}
	if existing != nil {
		existing.Sync(attrs)
		if err := h.orders.Update(ctx, existing); err != nil {
			return err
		}
		return h.emit(ctx, types.EventOrderCreated, cust.ID, body)
	}

	now := time.Now().UTC()
	ord := &order.Order{
		ID:         types.GenerateUUIDWithPrefix(types.UUID_PREFIX_ORDER),
		// Fallback reference; Sync replaces it when the payload carries
		// its own identifier.
		Identifier: types.GenerateShortIDWithPrefix(types.UUID_PREFIX_ORDER),
		CustomerID: cust.ID,
		Provider:   types.ProviderLemonSqueezy,
		CreatedAt:  now,
		UpdatedAt:  now,
		OrderedAt:  now,
	}
	ord.Sync(attrs)

	if err := h.orders.Create(ctx, ord); err != nil {
		if ierr.IsAlreadyExists(err) {
			// Lost the race; the winner's row is authoritative.
			return h.emit(ctx, types.EventOrderCreated, cust.ID, body)
		}
		return err
	}
	return h.emit(ctx, types.EventOrderCreated, cust.ID, body)
}

func (h *Handler) handleOrderRefunded(ctx context.Context, payload *WebhookPayload, body []byte) error {
	cust, err := h.resolveBillable(ctx, payload)
	if err != nil {
		return err
	}

	ord, err := h.orders.GetByProviderID(ctx, types.ProviderLemonSqueezy, payload.Data.ID)
	if err != nil && !ierr.IsNotFound(err) {
		return err
	}
	if ord != nil {
		attrs, err := ParseOrderAttributes(payload.Data.ID, payload.Data.Attributes)
		if err != nil {
			return err
		}
		ord.Sync(attrs)
		if err := h.orders.Update(ctx, ord); err != nil {
			return err
		}
	}

	// The event is emitted even without a local order so consumers learn
	// about refunds for purchases made before this service was deployed.
	return h.emit(ctx, types.EventOrderRefunded, cust.ID, body)
}

func (h *Handler) handleSubscriptionCreated(ctx context.Context, payload *WebhookPayload, body []byte) error {
	cust, err := h.resolveBillable(ctx, payload)
	if err != nil {
		return err
	}

	attrs, err := ParseSubscriptionAttributes(payload.Data.Attributes)
	if err != nil {
		return err
	}
	if !attrs.Status.Present || attrs.Status.Null {
		return ierr.NewError("subscription payload carries no status").
			WithHint("Subscription creation payloads must include a status").
			Mark(ierr.ErrValidation)
	}

	existing, err := h.subscriptions.GetByProviderID(ctx, types.ProviderLemonSqueezy, payload.Data.ID)
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

	subscriptionType := payload.Meta.CustomData["subscription_type"]
	if subscriptionType == "" {
		subscriptionType = types.DefaultSubscriptionType
	}

	now := time.Now().UTC()
	sub := &subscription.Subscription{
		ID:         types.GenerateUUIDWithPrefix(types.UUID_PREFIX_SUBSCRIPTION),
		Type:       subscriptionType,
		CustomerID: cust.ID,
		Provider:   types.ProviderLemonSqueezy,
		ProviderID: payload.Data.ID,
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

	if err := h.adoptCustomerIdentity(ctx, cust, payload); err != nil {
		return err
	}

	return h.emit(ctx, types.EventSubscriptionCreated, cust.ID, body)
}

// adoptCustomerIdentity finishes the generic-trial handover once a real
// subscription exists: the local trial ends and the customer row takes the
// provider's customer id.
func (h *Handler) adoptCustomerIdentity(ctx context.Context, cust *customer.Customer, payload *WebhookPayload) error {
	changed := false
	if cust.TrialEndsAt != nil {
		cust.TrialEndsAt = nil
		changed = true
	}
	if cust.ProviderID == nil {
		if providerCustomerID := customerIDOf(payload.Data.Attributes); providerCustomerID != "" {
			cust.ProviderID = &providerCustomerID
			changed = true
		}
	}
	if !changed {
		return nil
	}
	cust.UpdatedAt = time.Now().UTC()
	return h.customers.Update(ctx, cust)
}

// transitionHandler builds a handler for lifecycle events that sync an
// existing subscription. A missing subscription still emits the event so
// consumers observe transitions for entities this service never stored.
func (h *Handler) transitionHandler(eventName string) func(ctx context.Context, payload *WebhookPayload, body []byte) error {
	return func(ctx context.Context, payload *WebhookPayload, body []byte) error {
		sub, err := h.subscriptions.GetByProviderID(ctx, types.ProviderLemonSqueezy, payload.Data.ID)
		if err != nil && !ierr.IsNotFound(err) {
			return err
		}
		if sub == nil {
			h.logger.Warnw("webhook for unknown subscription",
				"event_name", eventName,
				"provider_id", payload.Data.ID,
			)
			return h.emit(ctx, eventName, "", body)
		}

		attrs, err := ParseSubscriptionAttributes(payload.Data.Attributes)
		if err != nil {
			return err
		}
		sub.Sync(attrs)
		if err := h.subscriptions.Update(ctx, sub); err != nil {
			return err
		}

		return h.emit(ctx, eventName, sub.CustomerID, body)
	}
}

// paymentHandler builds a handler for subscription payment notifications.
// These carry the subscription id inside the attributes and are silently
// ignored for unknown subscriptions.
func (h *Handler) paymentHandler(eventName string) func(ctx context.Context, payload *WebhookPayload, body []byte) error {
	return func(ctx context.Context, payload *WebhookPayload, body []byte) error {
		var wire struct {
			SubscriptionID types.FlexID `json:"subscription_id"`
		}
		if err := json.Unmarshal(payload.Data.Attributes, &wire); err != nil {
			return ierr.WithError(err).
				WithHint("Payment attributes are malformed").
				Mark(ierr.ErrValidation)
		}

		sub, err := h.subscriptions.GetByProviderID(ctx, types.ProviderLemonSqueezy, wire.SubscriptionID.String())
		if err != nil {
			if ierr.IsNotFound(err) {
				return nil
			}
			return err
		}

		return h.emit(ctx, eventName, sub.CustomerID, body)
	}
}

// licenseKeyHandler builds a handler for license key notifications. No
// local entity is kept; the event passes through with the resolved customer.
func (h *Handler) licenseKeyHandler(eventName string) func(ctx context.Context, payload *WebhookPayload, body []byte) error {
	return func(ctx context.Context, payload *WebhookPayload, body []byte) error {
		cust, err := h.resolveBillable(ctx, payload)
		if err != nil {
			return err
		}
		return h.emit(ctx, eventName, cust.ID, body)
	}
}

func (h *Handler) resolveBillable(ctx context.Context, payload *WebhookPayload) (*customer.Customer, error) {
	var wire struct {
		UserName  string `json:"user_name"`
		UserEmail string `json:"user_email"`
	}
	_ = json.Unmarshal(payload.Data.Attributes, &wire)

	return h.resolver.Resolve(ctx, types.ProviderLemonSqueezy, service.BillableIdentity{
		BillableID:   payload.Meta.CustomData["billable_id"],
		BillableType: payload.Meta.CustomData["billable_type"],
		ProviderID:   customerIDOf(payload.Data.Attributes),
		Name:         wire.UserName,
		Email:        wire.UserEmail,
	})
}

func (h *Handler) emit(ctx context.Context, eventName string, customerID string, body []byte) error {
	return h.events.Publish(ctx, &types.DomainEvent{
		ID:         types.GenerateUUIDWithPrefix(types.UUID_PREFIX_EVENT),
		EventName:  eventName,
		Provider:   types.ProviderLemonSqueezy,
		CustomerID: customerID,
		Timestamp:  time.Now().UTC(),
		Payload:    body,
	})
}
