package subscription

import (
	"testing"
	"time"

	"github.com/flexprice/payments/internal/types"
	"github.com/stretchr/testify/assert"
)

func TestSubscriptionValid(t *testing.T) {
	freeMode := types.PauseModeFree
	voidMode := types.PauseModeVoid

	testCases := []struct {
		name     string
		sub      Subscription
		expected bool
	}{
		{
			name:     "active",
			sub:      Subscription{Status: types.SubscriptionStatusActive},
			expected: true,
		},
		{
			name:     "on_trial",
			sub:      Subscription{Status: types.SubscriptionStatusOnTrial},
			expected: true,
		},
		{
			name:     "past_due",
			sub:      Subscription{Status: types.SubscriptionStatusPastDue},
			expected: true,
		},
		{
			name: "canceled_stays_valid_until_expiry",
			sub:  Subscription{Status: types.SubscriptionStatusCanceled},
			// Canceled subscriptions keep access through the grace period.
			expected: true,
		},
		{
			name:     "expired",
			sub:      Subscription{Status: types.SubscriptionStatusExpired},
			expected: false,
		},
		{
			name:     "unpaid",
			sub:      Subscription{Status: types.SubscriptionStatusUnpaid},
			expected: false,
		},
		{
			name: "paused_free_mode_keeps_access",
			sub: Subscription{
				Status:    types.SubscriptionStatusPaused,
				PauseMode: &freeMode,
			},
			expected: true,
		},
		{
			name: "paused_void_mode_revokes_access",
			sub: Subscription{
				Status:    types.SubscriptionStatusPaused,
				PauseMode: &voidMode,
			},
			expected: false,
		},
		{
			name:     "paused_without_mode",
			sub:      Subscription{Status: types.SubscriptionStatusPaused},
			expected: false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.sub.Valid())
		})
	}
}

func TestSubscriptionOnGracePeriod(t *testing.T) {
	future := time.Now().UTC().Add(24 * time.Hour)
	past := time.Now().UTC().Add(-24 * time.Hour)

	sub := Subscription{Status: types.SubscriptionStatusCanceled, EndsAt: &future}
	assert.True(t, sub.OnGracePeriod())

	sub.EndsAt = &past
	assert.False(t, sub.OnGracePeriod())

	sub.EndsAt = nil
	assert.False(t, sub.OnGracePeriod())

	active := Subscription{Status: types.SubscriptionStatusActive, EndsAt: &future}
	assert.False(t, active.OnGracePeriod())
}

func TestSubscriptionOnPausedPeriod(t *testing.T) {
	future := time.Now().UTC().Add(time.Hour)
	past := time.Now().UTC().Add(-time.Hour)

	sub := Subscription{Status: types.SubscriptionStatusPaused, PauseResumesAt: &future}
	assert.True(t, sub.OnPausedPeriod())

	sub.PauseResumesAt = &past
	assert.False(t, sub.OnPausedPeriod())

	sub.PauseResumesAt = nil
	assert.False(t, sub.OnPausedPeriod())
}

func TestSubscriptionHasPrice(t *testing.T) {
	priceID := "price_123"
	single := Subscription{ProviderPriceID: &priceID}
	assert.False(t, single.HasMultiplePrices())
	assert.True(t, single.HasPrice("price_123"))
	assert.False(t, single.HasPrice("price_999"))

	multi := Subscription{
		Items: []*Item{
			{ProviderPriceID: "price_a"},
			{ProviderPriceID: "price_b"},
		},
	}
	assert.True(t, multi.HasMultiplePrices())
	assert.True(t, multi.HasPrice("price_b"))
	assert.False(t, multi.HasPrice("price_c"))
}
