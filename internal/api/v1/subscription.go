package v1

import (
	"net/http"
	"time"

	"github.com/flexprice/payments/internal/api/dto"
	ierr "github.com/flexprice/payments/internal/errors"
	"github.com/flexprice/payments/internal/logger"
	"github.com/flexprice/payments/internal/service"
	"github.com/gin-gonic/gin"
)

type SubscriptionHandler struct {
	service service.SubscriptionService
	log     *logger.Logger
}

func NewSubscriptionHandler(service service.SubscriptionService, log *logger.Logger) *SubscriptionHandler {
	return &SubscriptionHandler{service: service, log: log}
}

func (h *SubscriptionHandler) GetSubscription(c *gin.Context) {
	sub, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, sub)
}

func (h *SubscriptionHandler) Cancel(c *gin.Context) {
	sub, err := h.service.Cancel(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.log.Error("Failed to cancel subscription", "error", err)
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, sub)
}

func (h *SubscriptionHandler) Resume(c *gin.Context) {
	sub, err := h.service.Resume(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.log.Error("Failed to resume subscription", "error", err)
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, sub)
}

func (h *SubscriptionHandler) Pause(c *gin.Context) {
	ctx := c.Request.Context()
	var req dto.PauseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	var (
		sub interface{}
		err error
	)
	if req.Free {
		sub, err = h.service.PauseForFree(ctx, c.Param("id"), req.ResumesAt)
	} else {
		sub, err = h.service.Pause(ctx, c.Param("id"), req.ResumesAt)
	}
	if err != nil {
		h.log.Error("Failed to pause subscription", "error", err)
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, sub)
}

func (h *SubscriptionHandler) Unpause(c *gin.Context) {
	sub, err := h.service.Unpause(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.log.Error("Failed to unpause subscription", "error", err)
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, sub)
}

func (h *SubscriptionHandler) Swap(c *gin.Context) {
	ctx := c.Request.Context()
	var req dto.SwapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	var (
		sub interface{}
		err error
	)
	if req.Invoice {
		sub, err = h.service.SwapAndInvoice(ctx, c.Param("id"), req.ProductID, req.VariantID)
	} else {
		sub, err = h.service.Swap(ctx, c.Param("id"), req.ProductID, req.VariantID)
	}
	if err != nil {
		h.log.Error("Failed to swap subscription", "error", err)
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, sub)
}

func (h *SubscriptionHandler) Anchor(c *gin.Context) {
	var req dto.AnchorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}
	if req.Date != nil && *req.Date != 0 && time.Unix(*req.Date, 0).Before(time.Now()) {
		c.Error(ierr.NewError("anchor date is in the past").
			WithHint("The billing cycle anchor must be in the future").
			Mark(ierr.ErrValidation))
		return
	}

	sub, err := h.service.AnchorBillingCycleOn(c.Request.Context(), c.Param("id"), req.Date)
	if err != nil {
		h.log.Error("Failed to anchor billing cycle", "error", err)
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, sub)
}

func (h *SubscriptionHandler) EndTrial(c *gin.Context) {
	sub, err := h.service.EndTrial(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.log.Error("Failed to end trial", "error", err)
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, sub)
}

func (h *SubscriptionHandler) GetPaymentMethodURL(c *gin.Context) {
	url, err := h.service.UpdatePaymentMethodURL(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, dto.PaymentMethodResponse{URL: url})
}
