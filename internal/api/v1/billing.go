package v1

import (
	"net/http"

	"github.com/flexprice/payments/internal/api/dto"
	ierr "github.com/flexprice/payments/internal/errors"
	"github.com/flexprice/payments/internal/logger"
	"github.com/flexprice/payments/internal/service"
	"github.com/gin-gonic/gin"
)

type BillingHandler struct {
	service service.BillingService
	log     *logger.Logger
}

func NewBillingHandler(service service.BillingService, log *logger.Logger) *BillingHandler {
	return &BillingHandler{service: service, log: log}
}

func (h *BillingHandler) CreateCustomer(c *gin.Context) {
	ctx := c.Request.Context()
	var req dto.CreateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	cust, err := h.service.CreateAsCustomer(ctx, req.Ref(), service.CreateCustomerParams{
		Name:        req.Name,
		Email:       req.Email,
		TrialEndsAt: req.TrialEndsAt,
	})
	if err != nil {
		h.log.Error("Failed to create customer", "error", err)
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, cust)
}

func (h *BillingHandler) GetCustomer(c *gin.Context) {
	ctx := c.Request.Context()
	var req dto.BillableRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid billable parameters").
			Mark(ierr.ErrValidation))
		return
	}

	cust, err := h.service.Customer(ctx, req.Ref())
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, cust)
}

func (h *BillingHandler) GetSubscription(c *gin.Context) {
	ctx := c.Request.Context()
	var req dto.BillableRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid billable parameters").
			Mark(ierr.ErrValidation))
		return
	}

	sub, err := h.service.Subscription(ctx, req.Ref(), c.Query("type"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, sub)
}

func (h *BillingHandler) GetSubscribed(c *gin.Context) {
	ctx := c.Request.Context()
	var req dto.BillableRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid billable parameters").
			Mark(ierr.ErrValidation))
		return
	}

	subscribed, err := h.service.Subscribed(ctx, req.Ref(), c.Query("type"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, dto.SubscribedResponse{Subscribed: subscribed})
}

func (h *BillingHandler) GetOrders(c *gin.Context) {
	ctx := c.Request.Context()
	var req dto.BillableRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid billable parameters").
			Mark(ierr.ErrValidation))
		return
	}

	orders, err := h.service.Orders(ctx, req.Ref())
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

func (h *BillingHandler) GetPortal(c *gin.Context) {
	ctx := c.Request.Context()
	var req dto.BillableRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid billable parameters").
			Mark(ierr.ErrValidation))
		return
	}

	url, err := h.service.CustomerPortalURL(ctx, req.Ref())
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, dto.PortalResponse{URL: url})
}

func (h *BillingHandler) Checkout(c *gin.Context) {
	ctx := c.Request.Context()
	var req dto.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	checkout, err := h.service.Checkout(ctx, req.Ref(), req.ToParams())
	if err != nil {
		h.log.Error("Failed to create checkout", "error", err)
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, dto.CheckoutResponse{URL: checkout.URL})
}
