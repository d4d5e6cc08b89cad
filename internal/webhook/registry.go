package webhook

import (
	"context"
	"strings"
	"unicode"

	ierr "github.com/flexprice/payments/internal/errors"
	"github.com/flexprice/payments/internal/types"
)

// Handler processes the webhook payloads of one provider. Handle receives
// the raw body and returns ErrInvalidEventName when the payload names no
// event and ErrNotImplemented when the event has no registered handler.
type Handler interface {
	Provider() types.ProviderType
	Handle(ctx context.Context, body []byte) error
}

// CanonicalEventKey normalizes a provider event name into the handler key
// convention. Segments are split on any non-alphanumeric rune, capitalized
// and suffixed with "Event":
//
//	subscription_created        -> SubscriptionCreatedEvent
//	customer.subscription.created -> CustomerSubscriptionCreatedEvent
func CanonicalEventKey(eventName string) string {
	var b strings.Builder
	upper := true
	for _, r := range eventName {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			upper = true
			continue
		}
		if upper {
			b.WriteRune(unicode.ToUpper(r))
			upper = false
		} else {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return ""
	}
	return b.String() + "Event"
}

// Registry maps providers to their webhook handlers. Routing is explicit;
// an unknown provider or event is a distinct, observable outcome rather
// than a silent drop.
type Registry struct {
	handlers map[types.ProviderType]Handler
}

func NewRegistry() *Registry {
	return &Registry{
		handlers: make(map[types.ProviderType]Handler),
	}
}

// Register adds a provider handler. Registering the same provider twice is
// an invalid operation since it would shadow the earlier handler.
func (r *Registry) Register(handler Handler) error {
	provider := handler.Provider()
	if _, exists := r.handlers[provider]; exists {
		return ierr.NewError("handler already registered").
			WithHintf("Provider %s already has a webhook handler", provider).
			Mark(ierr.ErrInvalidOperation)
	}
	r.handlers[provider] = handler
	return nil
}

// HandlerFor returns the handler of a provider.
func (r *Registry) HandlerFor(provider types.ProviderType) (Handler, bool) {
	handler, ok := r.handlers[provider]
	return handler, ok
}
