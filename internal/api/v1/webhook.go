package v1

import (
	"net/http"

	"github.com/flexprice/payments/internal/config"
	"github.com/flexprice/payments/internal/logger"
	"github.com/flexprice/payments/internal/providers/lemonsqueezy"
	"github.com/flexprice/payments/internal/providers/stripe"
	"github.com/flexprice/payments/internal/types"
	"github.com/flexprice/payments/internal/webhook"
	"github.com/gin-gonic/gin"
)

// WebhookHandler is the HTTP boundary of the webhook pipeline. Responses are
// plain text; providers only look at the status code, the body is for
// operators reading delivery logs.
type WebhookHandler struct {
	config  *config.Configuration
	service webhook.Service
	logger  *logger.Logger
}

func NewWebhookHandler(
	cfg *config.Configuration,
	service webhook.Service,
	logger *logger.Logger,
) *WebhookHandler {
	return &WebhookHandler{
		config:  cfg,
		service: service,
		logger:  logger,
	}
}

// Receive accepts one webhook delivery.
func (h *WebhookHandler) Receive(c *gin.Context) {
	// An unconfigured or unknown provider means the endpoint does not exist.
	if !h.config.ProviderConfigured() {
		c.Status(http.StatusNotFound)
		return
	}
	provider := h.config.Payments.Provider

	body, err := c.GetRawData()
	if err != nil {
		h.logger.Errorw("failed to read webhook body", "error", err)
		c.Status(http.StatusBadRequest)
		return
	}

	if secret := h.config.SigningSecret(); secret != "" {
		if err := h.verifySignature(c, provider, body, secret); err != nil {
			h.logger.Warnw("rejected webhook with bad signature",
				"provider", provider,
				"error", err,
			)
			c.String(http.StatusForbidden, "Invalid signature.")
			return
		}
	}

	headers := make(map[string]string, len(c.Request.Header))
	for key := range c.Request.Header {
		headers[key] = c.GetHeader(key)
	}

	result, err := h.service.Process(c.Request.Context(), provider, body, headers)
	if err != nil {
		c.Error(err)
		return
	}
	c.String(result.StatusCode, result.Message)
}

func (h *WebhookHandler) verifySignature(c *gin.Context, provider types.ProviderType, body []byte, secret string) error {
	switch provider {
	case types.ProviderStripe:
		return stripe.VerifySignature(body, c.GetHeader(stripe.SignatureHeader), secret)
	default:
		return lemonsqueezy.VerifySignature(body, c.GetHeader(lemonsqueezy.SignatureHeader), secret)
	}
}
