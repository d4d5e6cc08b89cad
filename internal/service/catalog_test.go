package service

import (
	"context"
	"testing"

	"github.com/flexprice/payments/internal/config"
	"github.com/flexprice/payments/internal/logger"
	"github.com/flexprice/payments/internal/providers"
	"github.com/flexprice/payments/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCatalogFixture() (*fakeApiClient, CatalogService) {
	client := &fakeApiClient{
		provider: types.ProviderLemonSqueezy,
		products: []*providers.Product{
			{ID: "11", Name: "Pro", Status: "published", Variants: []providers.Variant{
				{ID: "22", ProductID: "11", Name: "Monthly", Price: 900},
			}},
		},
	}
	svc := NewCatalogService(ServiceParams{
		Logger:          logger.NewNopLogger(),
		Config:          config.GetDefaultConfig(),
		ProviderClients: &fakeClientFactory{client: client},
	})
	return client, svc
}

func TestCatalogProductsCaching(t *testing.T) {
	ctx := context.Background()
	client, svc := newCatalogFixture()

	products, err := svc.Products(ctx, true)
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, []string{"ListProducts"}, client.calls)

	_, err = svc.Products(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"ListProducts"}, client.calls, "second cached listing must not hit the provider")

	_, err = svc.Products(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"ListProducts", "ListProducts"}, client.calls)
}

func TestCatalogRefreshDropsCache(t *testing.T) {
	ctx := context.Background()
	client, svc := newCatalogFixture()

	_, err := svc.Products(ctx, true)
	require.NoError(t, err)

	svc.Refresh(ctx)

	_, err = svc.Products(ctx, true)
	require.NoError(t, err)
	assert.Len(t, client.calls, 2)
}

func TestCatalogProduct(t *testing.T) {
	ctx := context.Background()
	_, svc := newCatalogFixture()

	product, err := svc.Product(ctx, "11")
	require.NoError(t, err)
	assert.Equal(t, "Pro", product.Name)
}
