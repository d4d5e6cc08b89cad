package api

import (
	v1 "github.com/flexprice/payments/internal/api/v1"
	"github.com/flexprice/payments/internal/config"
	"github.com/flexprice/payments/internal/rest/middleware"
	"github.com/gin-gonic/gin"
)

type Handlers struct {
	Health       *v1.HealthHandler
	Webhook      *v1.WebhookHandler
	Billing      *v1.BillingHandler
	Subscription *v1.SubscriptionHandler
	Catalog      *v1.CatalogHandler
}

func NewRouter(handlers Handlers, cfg *config.Configuration) *gin.Engine {
	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.RequestIDMiddleware,
		middleware.ErrorHandler(),
	)

	router.GET("/health", handlers.Health.Health)

	// The webhook endpoint lives at its configured path, outside the v1
	// group, since providers have the URL on file.
	router.POST(cfg.WebhookRoute(), handlers.Webhook.Receive)

	v1Group := router.Group("/v1")
	registerV1Routes(v1Group, handlers)

	return router
}

func registerV1Routes(router *gin.RouterGroup, handlers Handlers) {
	// Billing routes act on a billable entity of the calling application
	billing := router.Group("/billing")
	{
		billing.POST("/customers", handlers.Billing.CreateCustomer)
		billing.GET("/customer", handlers.Billing.GetCustomer)
		billing.GET("/subscription", handlers.Billing.GetSubscription)
		billing.GET("/subscribed", handlers.Billing.GetSubscribed)
		billing.GET("/orders", handlers.Billing.GetOrders)
		billing.GET("/portal", handlers.Billing.GetPortal)
		billing.POST("/checkout", handlers.Billing.Checkout)
	}

	// Subscription commands act on local subscription ids
	subscriptions := router.Group("/subscriptions")
	{
		subscriptions.GET("/:id", handlers.Subscription.GetSubscription)
		subscriptions.POST("/:id/cancel", handlers.Subscription.Cancel)
		subscriptions.POST("/:id/resume", handlers.Subscription.Resume)
		subscriptions.POST("/:id/pause", handlers.Subscription.Pause)
		subscriptions.POST("/:id/unpause", handlers.Subscription.Unpause)
		subscriptions.POST("/:id/swap", handlers.Subscription.Swap)
		subscriptions.POST("/:id/anchor", handlers.Subscription.Anchor)
		subscriptions.POST("/:id/end-trial", handlers.Subscription.EndTrial)
		subscriptions.GET("/:id/payment-method", handlers.Subscription.GetPaymentMethodURL)
	}

	// Provider catalog
	products := router.Group("/products")
	{
		products.GET("", handlers.Catalog.GetProducts)
		products.GET("/:id", handlers.Catalog.GetProduct)
	}
}
