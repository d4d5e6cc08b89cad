package webhook

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/flexprice/payments/internal/config"
	ierr "github.com/flexprice/payments/internal/errors"
	"github.com/flexprice/payments/internal/logger"
	"github.com/flexprice/payments/internal/pubsub"
	"github.com/flexprice/payments/internal/publisher"
	"github.com/flexprice/payments/internal/service"
	"github.com/flexprice/payments/internal/types"
)

// Response bodies are part of the contract; operators and provider
// dashboards match on these exact strings.
const (
	MsgHandled           = "Webhook was handled."
	MsgNoHandler         = "Webhook received but no handler found."
	MsgNoEventName       = "Webhook received but event name was not found."
	MsgInvalidCustomData = "Webhook skipped due to invalid custom data."
	MsgNotImplemented    = "Webhook skipped no handle method in handler."
	MsgDuplicate         = "Webhook skipped due to duplicate."
	MsgFailed            = "Webhook failed to be handled."
)

// Result is the HTTP outcome of one webhook delivery.
type Result struct {
	StatusCode int
	Message    string
}

// Service runs the webhook pipeline: store and deduplicate, route, handle,
// mark processed, and emit an observability event for every outcome. Every
// business-level outcome acknowledges with a 200 so providers stop
// redelivering.
type Service interface {
	Process(ctx context.Context, provider types.ProviderType, body []byte, headers map[string]string) (*Result, error)
}

// ServiceParams are the dependencies of the webhook pipeline.
type ServiceParams struct {
	Logger    *logger.Logger
	Config    *config.Configuration
	Registry  *Registry
	Store     service.WebhookStoreService
	Events    publisher.EventPublisher
	RawPubSub pubsub.Publisher
}

type webhookService struct {
	ServiceParams
}

func NewService(params ServiceParams) Service {
	return &webhookService{
		ServiceParams: params,
	}
}

// rawEnvelope is the message format on the raw webhook topic.
type rawEnvelope struct {
	Provider types.ProviderType `json:"provider"`
	RecordID string             `json:"record_id,omitempty"`
	Body     json.RawMessage    `json:"body"`
}

func (s *webhookService) Process(ctx context.Context, provider types.ProviderType, body []byte, headers map[string]string) (*Result, error) {
	s.notify(ctx, types.EventWebhookReceived, provider, body)

	storeEnabled := s.Config.Webhooks.Store || s.Config.Webhooks.Async

	var recordID string
	if storeEnabled {
		record, err := s.Store.Store(ctx, provider, eventNameOf(body), body, headers)
		if err != nil {
			if ierr.IsAlreadyExists(err) {
				s.notify(ctx, types.EventWebhookSkipped, provider, body)
				return &Result{StatusCode: http.StatusOK, Message: MsgDuplicate}, nil
			}
			return nil, err
		}
		recordID = record.ID

		if s.Config.Webhooks.Async {
			if err := s.publishRaw(ctx, provider, recordID, body); err != nil {
				return nil, err
			}
			s.notify(ctx, types.EventWebhookHandled, provider, body)
			return &Result{StatusCode: http.StatusOK, Message: MsgHandled}, nil
		}
	}

	handler, ok := s.Registry.HandlerFor(provider)
	if !ok {
		s.notify(ctx, types.EventWebhookUnhandled, provider, body)
		return &Result{StatusCode: http.StatusOK, Message: MsgNoHandler}, nil
	}

	if err := handler.Handle(ctx, body); err != nil {
		reason, msg := failureOutcome(err)
		s.Logger.Warnw("webhook handler failed",
			"provider", provider,
			"reason", reason,
			"error", err,
		)
		s.notifyFailed(ctx, provider, body, reason)
		return &Result{StatusCode: http.StatusOK, Message: msg}, nil
	}

	if recordID != "" {
		if err := s.Store.MarkProcessed(ctx, recordID); err != nil {
			return nil, err
		}
	}

	s.notify(ctx, types.EventWebhookHandled, provider, body)
	return &Result{StatusCode: http.StatusOK, Message: MsgHandled}, nil
}

func (s *webhookService) publishRaw(ctx context.Context, provider types.ProviderType, recordID string, body []byte) error {
	envelope, err := json.Marshal(rawEnvelope{
		Provider: provider,
		RecordID: recordID,
		Body:     body,
	})
	if err != nil {
		return err
	}

	msg := message.NewMessage(types.GenerateUUID(), envelope)
	msg.Metadata.Set("provider", provider.String())
	return s.RawPubSub.Publish(ctx, s.Config.Webhooks.Topic, msg)
}

// failureOutcome maps a handler error to the response message and the
// reason code carried on the failure event.
func failureOutcome(err error) (reason string, msg string) {
	switch {
	case ierr.IsInvalidEventName(err):
		return ierr.ErrCodeInvalidEventName, MsgNoEventName
	case ierr.IsInvalidCustomData(err):
		return ierr.ErrCodeInvalidCustomData, MsgInvalidCustomData
	case ierr.IsNotImplemented(err):
		return ierr.ErrCodeNotImplemented, MsgNotImplemented
	default:
		return ierr.ErrCodeSystemError, MsgFailed
	}
}

// notify emits a pipeline observability event. Failures are logged and
// swallowed; observability must never change the delivery outcome.
func (s *webhookService) notify(ctx context.Context, eventName string, provider types.ProviderType, body []byte) {
	s.publishEvent(ctx, &types.DomainEvent{
		ID:        types.GenerateUUIDWithPrefix(types.UUID_PREFIX_EVENT),
		EventName: eventName,
		Provider:  provider,
		Timestamp: time.Now().UTC(),
		Payload:   body,
	})
}

// notifyFailed emits the failure event tagged with the reason code so
// consumers can tell failure modes apart without re-parsing the body.
func (s *webhookService) notifyFailed(ctx context.Context, provider types.ProviderType, body []byte, reason string) {
	s.publishEvent(ctx, &types.DomainEvent{
		ID:        types.GenerateUUIDWithPrefix(types.UUID_PREFIX_EVENT),
		EventName: types.EventWebhookFailed,
		Provider:  provider,
		Reason:    reason,
		Timestamp: time.Now().UTC(),
		Payload:   body,
	})
}

func (s *webhookService) publishEvent(ctx context.Context, event *types.DomainEvent) {
	if err := s.Events.Publish(ctx, event); err != nil {
		s.Logger.Errorw("failed to publish pipeline event",
			"event_name", event.EventName,
			"provider", event.Provider,
			"error", err,
		)
	}
}

// eventNameOf probes the body for the event name without committing to a
// provider shape. Used only for record annotation.
func eventNameOf(body []byte) string {
	var probe struct {
		Type string `json:"type"`
		Meta struct {
			EventName string `json:"event_name"`
		} `json:"meta"`
	}
	if err := json.Unmarshal(body, &probe); err != nil {
		return ""
	}
	if probe.Meta.EventName != "" {
		return probe.Meta.EventName
	}
	return probe.Type
}
