package repository

import (
	"github.com/flexprice/payments/internal/domain/customer"
	"github.com/flexprice/payments/internal/domain/order"
	"github.com/flexprice/payments/internal/domain/subscription"
	"github.com/flexprice/payments/internal/domain/webhookrecord"
	"github.com/flexprice/payments/internal/logger"
	"github.com/flexprice/payments/internal/postgres"
	postgresRepo "github.com/flexprice/payments/internal/repository/postgres"
)

func NewCustomerRepository(client postgres.IClient, logger *logger.Logger) customer.Repository {
	return postgresRepo.NewCustomerRepository(client, logger)
}

func NewOrderRepository(client postgres.IClient, logger *logger.Logger) order.Repository {
	return postgresRepo.NewOrderRepository(client, logger)
}

func NewSubscriptionRepository(client postgres.IClient, logger *logger.Logger) subscription.Repository {
	return postgresRepo.NewSubscriptionRepository(client, logger)
}

func NewWebhookRecordRepository(client postgres.IClient, logger *logger.Logger) webhookrecord.Repository {
	return postgresRepo.NewWebhookRecordRepository(client, logger)
}
