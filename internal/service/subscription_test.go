package service

import (
	"context"
	"testing"
	"time"

	"github.com/flexprice/payments/internal/config"
	"github.com/flexprice/payments/internal/domain/subscription"
	ierr "github.com/flexprice/payments/internal/errors"
	"github.com/flexprice/payments/internal/logger"
	"github.com/flexprice/payments/internal/providers"
	"github.com/flexprice/payments/internal/testutil"
	"github.com/flexprice/payments/internal/types"
	"github.com/stretchr/testify/suite"
)

type SubscriptionServiceSuite struct {
	suite.Suite
	ctx           context.Context
	subscriptions *testutil.InMemorySubscriptionStore
	client        *fakeApiClient
	svc           SubscriptionService
}

func TestSubscriptionService(t *testing.T) {
	suite.Run(t, new(SubscriptionServiceSuite))
}

func (s *SubscriptionServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.subscriptions = testutil.NewInMemorySubscriptionStore()
	s.client = &fakeApiClient{provider: types.ProviderLemonSqueezy}

	s.svc = NewSubscriptionService(ServiceParams{
		Logger:           logger.NewNopLogger(),
		Config:           config.GetDefaultConfig(),
		SubscriptionRepo: s.subscriptions,
		ProviderClients:  &fakeClientFactory{client: s.client},
	})
}

func (s *SubscriptionServiceSuite) seed(status types.SubscriptionStatus) *subscription.Subscription {
	now := time.Now().UTC()
	sub := &subscription.Subscription{
		ID:         "sub_1",
		Type:       types.DefaultSubscriptionType,
		CustomerID: "cust_1",
		Provider:   types.ProviderLemonSqueezy,
		ProviderID: "5001",
		Status:     status,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	s.Require().NoError(s.subscriptions.Create(s.ctx, sub))
	return sub
}

func (s *SubscriptionServiceSuite) TestCancelSyncsProviderResponse() {
	s.seed(types.SubscriptionStatusActive)

	endsAt := time.Now().UTC().Add(30 * 24 * time.Hour)
	s.client.subscription = &providers.SubscriptionData{
		ProviderID: "5001",
		Attributes: subscription.Attributes{
			Status: subscription.Set(types.SubscriptionStatusCanceled),
			EndsAt: subscription.Set(endsAt),
		},
	}

	sub, err := s.svc.Cancel(s.ctx, "sub_1")
	s.Require().NoError(err)
	s.Equal(types.SubscriptionStatusCanceled, sub.Status)
	s.Require().NotNil(sub.EndsAt)

	stored, err := s.subscriptions.Get(s.ctx, "sub_1")
	s.Require().NoError(err)
	s.Equal(types.SubscriptionStatusCanceled, stored.Status)
}

func (s *SubscriptionServiceSuite) TestResumeRejectsExpired() {
	s.seed(types.SubscriptionStatusExpired)

	_, err := s.svc.Resume(s.ctx, "sub_1")
	s.Require().Error(err)
	s.True(ierr.IsInvalidOperation(err))
	s.Empty(s.client.calls, "expired subscriptions never reach the provider")
}

func (s *SubscriptionServiceSuite) TestResumeClearsEndDate() {
	s.seed(types.SubscriptionStatusCanceled)
	s.client.subscription = &providers.SubscriptionData{
		ProviderID: "5001",
		Attributes: subscription.Attributes{
			Status: subscription.Set(types.SubscriptionStatusActive),
			EndsAt: subscription.Null[time.Time](),
		},
	}

	sub, err := s.svc.Resume(s.ctx, "sub_1")
	s.Require().NoError(err)
	s.Equal(types.SubscriptionStatusActive, sub.Status)
	s.Nil(sub.EndsAt)
}

func (s *SubscriptionServiceSuite) TestPauseModes() {
	s.seed(types.SubscriptionStatusActive)
	s.client.subscription = &providers.SubscriptionData{
		ProviderID: "5001",
		Attributes: subscription.Attributes{
			Status: subscription.Set(types.SubscriptionStatusPaused),
		},
	}

	_, err := s.svc.Pause(s.ctx, "sub_1", nil)
	s.Require().NoError(err)
	s.Equal(types.PauseModeVoid, s.client.lastPauseMode)

	_, err = s.svc.PauseForFree(s.ctx, "sub_1", nil)
	s.Require().NoError(err)
	s.Equal(types.PauseModeFree, s.client.lastPauseMode)
}

func (s *SubscriptionServiceSuite) TestSwapAndInvoice() {
	s.seed(types.SubscriptionStatusActive)
	s.client.subscription = &providers.SubscriptionData{
		ProviderID: "5001",
		Attributes: subscription.Attributes{
			Status:    subscription.Set(types.SubscriptionStatusActive),
			ProductID: subscription.Set("11"),
			VariantID: subscription.Set("23"),
		},
	}

	sub, err := s.svc.Swap(s.ctx, "sub_1", "11", "23")
	s.Require().NoError(err)
	s.False(s.client.lastSwapOpts.InvoiceImmediately)
	s.Equal("23", *sub.VariantID)

	_, err = s.svc.SwapAndInvoice(s.ctx, "sub_1", "11", "23")
	s.Require().NoError(err)
	s.True(s.client.lastSwapOpts.InvoiceImmediately)
}

func (s *SubscriptionServiceSuite) TestEndTrialAnchorsOnNow() {
	s.seed(types.SubscriptionStatusOnTrial)
	s.client.subscription = &providers.SubscriptionData{
		ProviderID: "5001",
		Attributes: subscription.Attributes{
			Status:      subscription.Set(types.SubscriptionStatusActive),
			TrialEndsAt: subscription.Null[time.Time](),
		},
	}

	sub, err := s.svc.EndTrial(s.ctx, "sub_1")
	s.Require().NoError(err)
	s.True(s.client.anchorCalled)
	s.Nil(s.client.lastAnchorDate)
	s.Equal(types.SubscriptionStatusActive, sub.Status)
	s.Nil(sub.TrialEndsAt)
}

func (s *SubscriptionServiceSuite) TestUpdatePaymentMethodURL() {
	s.seed(types.SubscriptionStatusActive)
	s.client.subscription = &providers.SubscriptionData{
		ProviderID: "5001",
		URLs: map[string]string{
			"update_payment_method": "https://pay.example/update",
		},
	}

	url, err := s.svc.UpdatePaymentMethodURL(s.ctx, "sub_1")
	s.Require().NoError(err)
	s.Equal("https://pay.example/update", url)
}

func (s *SubscriptionServiceSuite) TestUpdatePaymentMethodURLMissing() {
	s.seed(types.SubscriptionStatusActive)
	s.client.subscription = &providers.SubscriptionData{ProviderID: "5001"}

	_, err := s.svc.UpdatePaymentMethodURL(s.ctx, "sub_1")
	s.Require().Error(err)
	s.True(ierr.IsNotFound(err))
}
