package v1

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/flexprice/payments/internal/config"
	"github.com/flexprice/payments/internal/logger"
	"github.com/flexprice/payments/internal/providers/lemonsqueezy"
	"github.com/flexprice/payments/internal/types"
	"github.com/flexprice/payments/internal/webhook"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubWebhookService struct {
	result   *webhook.Result
	err      error
	provider types.ProviderType
	body     []byte
}

func (s *stubWebhookService) Process(ctx context.Context, provider types.ProviderType, body []byte, headers map[string]string) (*webhook.Result, error) {
	s.provider = provider
	s.body = body
	return s.result, s.err
}

func newWebhookRouter(cfg *config.Configuration, svc webhook.Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	handler := NewWebhookHandler(cfg, svc, logger.NewNopLogger())
	r := gin.New()
	r.POST("/payments/webhooks", handler.Receive)
	return r
}

func TestReceiveHandlesDelivery(t *testing.T) {
	cfg := config.GetDefaultConfig()
	svc := &stubWebhookService{
		result: &webhook.Result{StatusCode: http.StatusOK, Message: webhook.MsgHandled},
	}
	r := newWebhookRouter(cfg, svc)

	body := []byte(`{"meta":{"event_name":"order_created"}}`)
	req := httptest.NewRequest(http.MethodPost, "/payments/webhooks", bytes.NewReader(body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, webhook.MsgHandled, w.Body.String())
	assert.Equal(t, types.ProviderLemonSqueezy, svc.provider)
	assert.Equal(t, body, svc.body)
}

func TestReceiveRespondsNotFoundWithoutProvider(t *testing.T) {
	cfg := config.GetDefaultConfig()
	cfg.Payments.Provider = ""
	r := newWebhookRouter(cfg, &stubWebhookService{})

	req := httptest.NewRequest(http.MethodPost, "/payments/webhooks", bytes.NewReader([]byte("{}")))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestReceiveVerifiesSignature(t *testing.T) {
	cfg := config.GetDefaultConfig()
	cfg.Payments.Providers[types.ProviderLemonSqueezy.String()] = config.ProviderConfig{
		SigningSecret: "whsec_test",
	}
	svc := &stubWebhookService{
		result: &webhook.Result{StatusCode: http.StatusOK, Message: webhook.MsgHandled},
	}
	r := newWebhookRouter(cfg, svc)

	body := []byte(`{"meta":{"event_name":"order_created"}}`)

	// Missing signature.
	req := httptest.NewRequest(http.MethodPost, "/payments/webhooks", bytes.NewReader(body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "Invalid signature.", w.Body.String())

	// Wrong signature.
	req = httptest.NewRequest(http.MethodPost, "/payments/webhooks", bytes.NewReader(body))
	req.Header.Set(lemonsqueezy.SignatureHeader, lemonsqueezy.Sign(body, "wrong-secret"))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Valid signature.
	req = httptest.NewRequest(http.MethodPost, "/payments/webhooks", bytes.NewReader(body))
	req.Header.Set(lemonsqueezy.SignatureHeader, lemonsqueezy.Sign(body, "whsec_test"))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, webhook.MsgHandled, w.Body.String())
}
