package stripe

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/flexprice/payments/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParseObject(t *testing.T, raw string) *subscriptionObject {
	t.Helper()
	obj, err := parseSubscriptionObject(json.RawMessage(raw))
	require.NoError(t, err)
	return obj
}

func TestAttributesForActiveSubscription(t *testing.T) {
	obj := mustParseObject(t, `{
		"id": "sub_1",
		"customer": "cus_1",
		"status": "active",
		"items": {"data": [{
			"id": "si_1",
			"current_period_end": 1767225600,
			"price": {"id": "price_1", "product": "prod_1"}
		}]}
	}`)

	attrs, err := obj.attributes()
	require.NoError(t, err)

	assert.Equal(t, types.SubscriptionStatusActive, attrs.Status.Value)
	assert.Equal(t, "prod_1", attrs.ProductID.Value)
	assert.Equal(t, "price_1", attrs.VariantID.Value)
	assert.Equal(t, "price_1", attrs.ProviderPriceID.Value)
	assert.True(t, attrs.TrialEndsAt.Null)
	assert.True(t, attrs.EndsAt.Null)
}

func TestAttributesDeriveCancellationFromPeriodEnd(t *testing.T) {
	periodEnd := int64(1767225600)
	obj := mustParseObject(t, `{
		"id": "sub_1",
		"status": "active",
		"cancel_at_period_end": true,
		"items": {"data": [{
			"id": "si_1",
			"current_period_end": 1767225600,
			"price": {"id": "price_1", "product": "prod_1"}
		}]}
	}`)

	attrs, err := obj.attributes()
	require.NoError(t, err)

	// Stripe keeps status "active" for pending cancellations; the derived
	// end date flips the local status.
	assert.Equal(t, types.SubscriptionStatusCanceled, attrs.Status.Value)
	require.True(t, attrs.EndsAt.Present)
	require.False(t, attrs.EndsAt.Null)
	assert.Equal(t, types.FromEpoch(periodEnd), attrs.EndsAt.Value)
}

func TestAttributesTrialCancellationEndsAtTrialEnd(t *testing.T) {
	trialEnd := int64(1764547200)
	obj := mustParseObject(t, `{
		"id": "sub_1",
		"status": "trialing",
		"trial_end": 1764547200,
		"cancel_at_period_end": true,
		"items": {"data": [{
			"id": "si_1",
			"current_period_end": 1767225600,
			"price": {"id": "price_1", "product": "prod_1"}
		}]}
	}`)

	attrs, err := obj.attributes()
	require.NoError(t, err)

	assert.Equal(t, types.SubscriptionStatusCanceled, attrs.Status.Value)
	assert.Equal(t, types.FromEpoch(trialEnd), attrs.EndsAt.Value)
	assert.Equal(t, types.FromEpoch(trialEnd), attrs.TrialEndsAt.Value)
}

func TestAttributesMultiPriceClearsPlanFields(t *testing.T) {
	obj := mustParseObject(t, `{
		"id": "sub_1",
		"status": "active",
		"items": {"data": [
			{"id": "si_1", "price": {"id": "price_1", "product": "prod_1"}},
			{"id": "si_2", "price": {"id": "price_2", "product": "prod_2"}}
		]}
	}`)

	attrs, err := obj.attributes()
	require.NoError(t, err)

	assert.True(t, attrs.ProductID.Null)
	assert.True(t, attrs.VariantID.Null)
	assert.True(t, attrs.ProviderPriceID.Null)
}

func TestCurrentPeriodEndFallsBackToItems(t *testing.T) {
	obj := mustParseObject(t, `{
		"id": "sub_1",
		"status": "active",
		"items": {"data": [
			{"id": "si_1", "current_period_end": 1764547200, "price": {"id": "p1", "product": "pr1"}},
			{"id": "si_2", "current_period_end": 1767225600, "price": {"id": "p2", "product": "pr2"}}
		]}
	}`)

	end := obj.currentPeriodEnd()
	require.NotNil(t, end)
	assert.Equal(t, time.Unix(1767225600, 0).UTC(), *end, "latest item period end wins")
}

func TestCustomDataExtraction(t *testing.T) {
	nested := mustParseObject(t, `{
		"id": "sub_1",
		"status": "active",
		"metadata": {"custom_data": "{\"billable_id\":\"42\",\"billable_type\":\"users\"}"},
		"items": {"data": []}
	}`)
	assert.Equal(t, "42", nested.customData()["billable_id"])

	flat := mustParseObject(t, `{
		"id": "sub_1",
		"status": "active",
		"metadata": {"billable_id": "42", "billable_type": "users"},
		"items": {"data": []}
	}`)
	assert.Equal(t, "42", flat.customData()["billable_id"])
	assert.Equal(t, "users", flat.customData()["billable_type"])
}
