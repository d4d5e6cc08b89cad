package webhook

import (
	"context"
	"testing"

	ierr "github.com/flexprice/payments/internal/errors"
	"github.com/flexprice/payments/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalEventKey(t *testing.T) {
	testCases := []struct {
		eventName string
		expected  string
	}{
		{"order_created", "OrderCreatedEvent"},
		{"subscription_payment_success", "SubscriptionPaymentSuccessEvent"},
		{"customer.subscription.created", "CustomerSubscriptionCreatedEvent"},
		{"customer.subscription.updated", "CustomerSubscriptionUpdatedEvent"},
		{"invoice.payment_failed", "InvoicePaymentFailedEvent"},
		{"already_capitalized", "AlreadyCapitalizedEvent"},
		{"", ""},
		{"---", ""},
	}

	for _, tc := range testCases {
		t.Run(tc.eventName, func(t *testing.T) {
			assert.Equal(t, tc.expected, CanonicalEventKey(tc.eventName))
		})
	}
}

type stubHandler struct {
	provider types.ProviderType
}

func (h *stubHandler) Provider() types.ProviderType {
	return h.provider
}

func (h *stubHandler) Handle(ctx context.Context, body []byte) error {
	return nil
}

func TestRegistryRegister(t *testing.T) {
	registry := NewRegistry()

	require.NoError(t, registry.Register(&stubHandler{provider: types.ProviderLemonSqueezy}))

	handler, ok := registry.HandlerFor(types.ProviderLemonSqueezy)
	require.True(t, ok)
	assert.Equal(t, types.ProviderLemonSqueezy, handler.Provider())

	_, ok = registry.HandlerFor(types.ProviderStripe)
	assert.False(t, ok)

	err := registry.Register(&stubHandler{provider: types.ProviderLemonSqueezy})
	require.Error(t, err)
	assert.True(t, ierr.IsInvalidOperation(err))
}
