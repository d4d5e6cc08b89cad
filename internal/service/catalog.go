package service

import (
	"context"
	"fmt"

	gocache "github.com/patrickmn/go-cache"

	"github.com/flexprice/payments/internal/providers"
)

// CatalogService exposes the provider's product catalog. Catalogs change
// rarely; listings can be served from an in-process cache that lives until
// Refresh is called.
type CatalogService interface {
	// Products lists the published products of the active provider. With
	// cached set, a previously fetched listing is reused.
	Products(ctx context.Context, cached bool) ([]*providers.Product, error)

	// Product fetches one product with its variants, bypassing the cache.
	Product(ctx context.Context, productID string) (*providers.Product, error)

	// Refresh drops the cached listing of the active provider.
	Refresh(ctx context.Context)
}

type catalogService struct {
	ServiceParams
	cache *gocache.Cache
}

func NewCatalogService(params ServiceParams) CatalogService {
	return &catalogService{
		ServiceParams: params,
		cache:         gocache.New(gocache.NoExpiration, gocache.NoExpiration),
	}
}

func (s *catalogService) cacheKey() string {
	return fmt.Sprintf("%s-products", s.Config.Payments.Provider)
}

func (s *catalogService) Products(ctx context.Context, cached bool) ([]*providers.Product, error) {
	key := s.cacheKey()
	if cached {
		if hit, ok := s.cache.Get(key); ok {
			return hit.([]*providers.Product), nil
		}
	}

	client, err := s.ProviderClients.ActiveClient()
	if err != nil {
		return nil, err
	}
	products, err := client.ListProducts(ctx)
	if err != nil {
		return nil, err
	}

	s.cache.Set(key, products, gocache.NoExpiration)
	return products, nil
}

func (s *catalogService) Product(ctx context.Context, productID string) (*providers.Product, error) {
	client, err := s.ProviderClients.ActiveClient()
	if err != nil {
		return nil, err
	}
	return client.GetProduct(ctx, productID)
}

func (s *catalogService) Refresh(ctx context.Context) {
	s.cache.Delete(s.cacheKey())
}
