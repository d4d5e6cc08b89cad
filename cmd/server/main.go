package main

import (
	"context"
	"time"

	"github.com/flexprice/payments/internal/api"
	v1 "github.com/flexprice/payments/internal/api/v1"
	"github.com/flexprice/payments/internal/config"
	"github.com/flexprice/payments/internal/httpclient"
	"github.com/flexprice/payments/internal/logger"
	"github.com/flexprice/payments/internal/postgres"
	"github.com/flexprice/payments/internal/providers/factory"
	"github.com/flexprice/payments/internal/providers/lemonsqueezy"
	"github.com/flexprice/payments/internal/providers/stripe"
	"github.com/flexprice/payments/internal/pubsub"
	pubsubRouter "github.com/flexprice/payments/internal/pubsub/router"
	"github.com/flexprice/payments/internal/publisher"
	"github.com/flexprice/payments/internal/repository"
	"github.com/flexprice/payments/internal/service"
	"github.com/flexprice/payments/internal/webhook"
	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
)

func init() {
	// Set UTC timezone for the entire application
	time.Local = time.UTC
}

func main() {
	var opts []fx.Option

	// Core dependencies
	opts = append(opts,
		fx.Provide(
			// Config
			config.NewConfig,

			// Logger
			logger.NewLogger,

			// Postgres
			postgres.NewClient,

			// HTTP Client
			httpclient.NewDefaultClient,

			// Provider API clients
			factory.NewFactory,

			// Repositories
			repository.NewCustomerRepository,
			repository.NewOrderRepository,
			repository.NewSubscriptionRepository,
			repository.NewWebhookRecordRepository,

			// PubSub router
			pubsubRouter.NewRouter,
		),
	)

	// Webhook module (must be initialised before services)
	opts = append(opts, webhook.Module)

	// Service layer
	opts = append(opts,
		fx.Provide(
			service.NewServiceParams,

			service.NewWebhookStoreService,
			service.NewResolverService,
			service.NewSubscriptionService,
			service.NewBillingService,
			service.NewCatalogService,
		),
	)

	// API
	opts = append(opts,
		fx.Provide(
			provideHandlers,
			provideRouter,
		),
		fx.Invoke(
			registerProviderHandlers,
			startServer,
		),
	)

	app := fx.New(opts...)
	app.Run()
}

func provideHandlers(
	cfg *config.Configuration,
	logger *logger.Logger,
	webhookService webhook.Service,
	billingService service.BillingService,
	subscriptionService service.SubscriptionService,
	catalogService service.CatalogService,
) api.Handlers {
	return api.Handlers{
		Health:       v1.NewHealthHandler(logger),
		Webhook:      v1.NewWebhookHandler(cfg, webhookService, logger),
		Billing:      v1.NewBillingHandler(billingService, logger),
		Subscription: v1.NewSubscriptionHandler(subscriptionService, logger),
		Catalog:      v1.NewCatalogHandler(catalogService, logger),
	}
}

func provideRouter(handlers api.Handlers, cfg *config.Configuration) *gin.Engine {
	return api.NewRouter(handlers, cfg)
}

// registerProviderHandlers wires one webhook handler per shipped provider.
func registerProviderHandlers(
	registry *webhook.Registry,
	resolver service.ResolverService,
	params service.ServiceParams,
	events publisher.EventPublisher,
) error {
	lsHandler := lemonsqueezy.NewHandler(lemonsqueezy.HandlerParams{
		Logger:        params.Logger,
		Config:        params.Config,
		Resolver:      resolver,
		Customers:     params.CustomerRepo,
		Orders:        params.OrderRepo,
		Subscriptions: params.SubscriptionRepo,
		Events:        events,
	})
	if err := registry.Register(lsHandler); err != nil {
		return err
	}

	stripeHandler := stripe.NewHandler(stripe.HandlerParams{
		Logger:        params.Logger,
		Config:        params.Config,
		Resolver:      resolver,
		Customers:     params.CustomerRepo,
		Subscriptions: params.SubscriptionRepo,
		Events:        events,
	})
	return registry.Register(stripeHandler)
}

func startServer(
	lc fx.Lifecycle,
	cfg *config.Configuration,
	r *gin.Engine,
	router *pubsubRouter.Router,
	consumer *webhook.Consumer,
	ps pubsub.PubSub,
	log *logger.Logger,
) {
	startAPIServer(lc, r, cfg, log)
	startMessageRouter(lc, cfg, router, consumer, ps, log)
}

func startAPIServer(
	lc fx.Lifecycle,
	r *gin.Engine,
	cfg *config.Configuration,
	log *logger.Logger,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("Starting API server...")
			go func() {
				if err := r.Run(cfg.Server.Address); err != nil {
					log.Fatalf("Failed to start server: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Shutting down server...")
			return nil
		},
	})
}

func startMessageRouter(
	lc fx.Lifecycle,
	cfg *config.Configuration,
	router *pubsubRouter.Router,
	consumer *webhook.Consumer,
	ps pubsub.PubSub,
	log *logger.Logger,
) {
	if cfg.Webhooks.Async {
		consumer.RegisterHandler(router, ps)
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := router.Run(); err != nil {
					log.Errorw("message router stopped", "error", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return router.Close()
		},
	})
}
