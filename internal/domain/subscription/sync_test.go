package subscription

import (
	"testing"
	"time"

	"github.com/flexprice/payments/internal/types"
	"github.com/stretchr/testify/assert"
)

func TestSyncAbsentFieldsKeepLocalState(t *testing.T) {
	productID := "prod_1"
	variantID := "var_1"
	renewsAt := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	sub := &Subscription{
		Status:    types.SubscriptionStatusActive,
		ProductID: &productID,
		VariantID: &variantID,
		RenewsAt:  &renewsAt,
	}

	// An empty delta must be a no-op on every field.
	sub.Sync(Attributes{})

	assert.Equal(t, types.SubscriptionStatusActive, sub.Status)
	assert.Equal(t, &productID, sub.ProductID)
	assert.Equal(t, &variantID, sub.VariantID)
	assert.Equal(t, renewsAt, *sub.RenewsAt)
}

func TestSyncExplicitNullClearsNullableFields(t *testing.T) {
	productID := "prod_1"
	cardBrand := "visa"
	trialEndsAt := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	mode := types.PauseModeVoid

	sub := &Subscription{
		Status:      types.SubscriptionStatusPaused,
		ProductID:   &productID,
		CardBrand:   &cardBrand,
		TrialEndsAt: &trialEndsAt,
		PauseMode:   &mode,
	}

	sub.Sync(Attributes{
		ProductID:   Null[string](),
		CardBrand:   Null[string](),
		TrialEndsAt: Null[time.Time](),
		Pause:       Null[Pause](),
	})

	assert.Nil(t, sub.ProductID)
	assert.Nil(t, sub.CardBrand)
	assert.Nil(t, sub.TrialEndsAt)
	assert.Nil(t, sub.PauseMode)
	assert.Nil(t, sub.PauseResumesAt)
}

func TestSyncNullStatusIsTreatedAsAbsent(t *testing.T) {
	sub := &Subscription{Status: types.SubscriptionStatusActive}

	sub.Sync(Attributes{Status: Null[types.SubscriptionStatus]()})

	assert.Equal(t, types.SubscriptionStatusActive, sub.Status)
}

func TestSyncAppliesPresentValues(t *testing.T) {
	sub := &Subscription{Status: types.SubscriptionStatusOnTrial}

	resumesAt := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	endsAt := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

	sub.Sync(Attributes{
		Status:          Set(types.SubscriptionStatusPaused),
		ProductID:       Set("prod_2"),
		VariantID:       Set("var_2"),
		ProviderPriceID: Set("price_2"),
		CardBrand:       Set("mastercard"),
		CardLastFour:    Set("4444"),
		Pause: Set(Pause{
			Mode:      types.PauseModeFree,
			ResumesAt: &resumesAt,
		}),
		EndsAt: Set(endsAt),
	})

	assert.Equal(t, types.SubscriptionStatusPaused, sub.Status)
	assert.Equal(t, "prod_2", *sub.ProductID)
	assert.Equal(t, "var_2", *sub.VariantID)
	assert.Equal(t, "price_2", *sub.ProviderPriceID)
	assert.Equal(t, "mastercard", *sub.CardBrand)
	assert.Equal(t, "4444", *sub.CardLastFour)
	assert.Equal(t, types.PauseModeFree, *sub.PauseMode)
	assert.Equal(t, resumesAt, *sub.PauseResumesAt)
	assert.Equal(t, endsAt, *sub.EndsAt)
	assert.False(t, sub.UpdatedAt.IsZero())
}
