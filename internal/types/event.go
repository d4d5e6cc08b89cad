package types

import (
	"encoding/json"
	"time"
)

// DomainEvent is published on the events topic for every webhook outcome and
// billing state transition. Consumers in the surrounding application react to
// these instead of touching billing tables directly.
type DomainEvent struct {
	ID         string          `json:"id"`
	EventName  string          `json:"event_name"`
	Provider   ProviderType    `json:"provider"`
	CustomerID string          `json:"customer_id,omitempty"`
	// Reason carries a machine-readable failure code on webhook.failed
	// events. Empty on every other event.
	Reason    string          `json:"reason,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// Webhook pipeline outcomes.
const (
	EventWebhookReceived  = "webhook.received"
	EventWebhookHandled   = "webhook.handled"
	EventWebhookUnhandled = "webhook.unhandled"
	EventWebhookFailed    = "webhook.failed"
	EventWebhookSkipped   = "webhook.skipped"
)

// Order lifecycle.
const (
	EventOrderCreated  = "order.created"
	EventOrderRefunded = "order.refunded"
)

// Subscription lifecycle.
const (
	EventSubscriptionCreated          = "subscription.created"
	EventSubscriptionUpdated          = "subscription.updated"
	EventSubscriptionCanceled         = "subscription.canceled"
	EventSubscriptionResumed          = "subscription.resumed"
	EventSubscriptionExpired          = "subscription.expired"
	EventSubscriptionPaused           = "subscription.paused"
	EventSubscriptionUnpaused         = "subscription.unpaused"
	EventSubscriptionPaymentSuccess   = "subscription.payment_success"
	EventSubscriptionPaymentFailed    = "subscription.payment_failed"
	EventSubscriptionPaymentRecovered = "subscription.payment_recovered"
)

// License keys are pass-through notifications; no local entity is kept.
const (
	EventLicenseKeyCreated = "license_key.created"
	EventLicenseKeyUpdated = "license_key.updated"
)
