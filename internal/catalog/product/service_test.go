package product_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stocktrail/stocktrail/internal/catalog/product"
	"github.com/stocktrail/stocktrail/internal/platform/apperr"
)

type memoryRepository struct {
	products map[string]*product.Product
	bySKU    map[string]string
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{
		products: make(map[string]*product.Product),
		bySKU:    make(map[string]string),
	}
}

func (repository *memoryRepository) ListProducts(_ context.Context, f product.Filter, limit, offset int) ([]*product.Product, int, error) {
	var all []*product.Product
	for _, p := range repository.products {
		if f.BrandID != "" && p.BrandID != f.BrandID {
			continue
		}
		all = append(all, p)
	}
	return all, len(all), nil
}

func (repository *memoryRepository) GetProduct(_ context.Context, id string) (*product.Product, error) {
	p, ok := repository.products[id]
	if !ok {
		return nil, apperr.NotFound("Product")
	}
	clone := *p
	return &clone, nil
}

func (repository *memoryRepository) CreateProduct(_ context.Context, p *product.Product) error {
	if _, taken := repository.bySKU[p.SKU]; taken {
		return apperr.Conflict("A product with this SKU already exists")
	}
	clone := *p
	repository.products[p.ID] = &clone
	repository.bySKU[p.SKU] = p.ID
	return nil
}

func (repository *memoryRepository) UpdateProduct(_ context.Context, p *product.Product) error {
	stored, ok := repository.products[p.ID]
	if !ok {
		return apperr.NotFound("Product")
	}
	delete(repository.bySKU, stored.SKU)
	clone := *p
	clone.StockQuantity = stored.StockQuantity
	repository.products[p.ID] = &clone
	repository.bySKU[p.SKU] = p.ID
	return nil
}

func (repository *memoryRepository) DeleteProduct(_ context.Context, id string) error {
	stored, ok := repository.products[id]
	if !ok {
		return apperr.NotFound("Product")
	}
	delete(repository.bySKU, stored.SKU)
	delete(repository.products, id)
	return nil
}

func (repository *memoryRepository) AdjustStock(_ context.Context, id string, delta int) (*product.Product, error) {
	stored, ok := repository.products[id]
	if !ok {
		return nil, apperr.NotFound("Product")
	}
	if stored.StockQuantity+delta < 0 {
		return nil, apperr.Conflict("Insufficient stock for this adjustment")
	}
	stored.StockQuantity += delta
	clone := *stored
	return &clone, nil
}

// countingCache records hits so tests can assert read-through behavior.
type countingCache struct {
	entries     map[string]*product.Product
	hits        int
	invalidated []string
}

func newCountingCache() *countingCache {
	return &countingCache{entries: make(map[string]*product.Product)}
}

func (cache *countingCache) Get(_ context.Context, id string) (*product.Product, bool) {
	p, ok := cache.entries[id]
	if ok {
		cache.hits++
	}
	return p, ok
}

func (cache *countingCache) Set(_ context.Context, p *product.Product) {
	cache.entries[p.ID] = p
}

func (cache *countingCache) Invalidate(_ context.Context, id string) {
	delete(cache.entries, id)
	cache.invalidated = append(cache.invalidated, id)
}

func newTestService() (*product.Service, *memoryRepository, *countingCache) {
	repository := newMemoryRepository()
	cache := newCountingCache()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return product.NewService(repository, cache, logger), repository, cache
}

func validProduct() *product.Product {
	return &product.Product{
		SKU:           "CAM-X100-BLK",
		Name:          "Trailcam X100",
		BrandID:       "0191a0c4-2f3b-7e5d-9a1b-3c4d5e6f7a80",
		PriceCents:    129900,
		StockQuantity: 25,
	}
}

/*
TestCreateProduct verifies identifier and slug assignment plus input
validation.
*/
func TestCreateProduct(t *testing.T) {
	service, _, _ := newTestService()
	ctx := context.Background()

	input := validProduct()
	require.NoError(t, service.CreateProduct(ctx, input))

	assert.NotEmpty(t, input.ID)
	assert.Equal(t, "trailcam-x100", input.Slug)

	t.Run("rejects_missing_required_fields", func(t *testing.T) {
		err := service.CreateProduct(ctx, &product.Product{})
		require.Error(t, err)
		assert.Equal(t, "VALIDATION_ERROR", apperr.As(err).Code)
	})

	t.Run("rejects_negative_price", func(t *testing.T) {
		bad := validProduct()
		bad.SKU = "CAM-X100-SLV"
		bad.PriceCents = -1

		err := service.CreateProduct(ctx, bad)
		require.Error(t, err)
		assert.Equal(t, "VALIDATION_ERROR", apperr.As(err).Code)
	})
}

/*
TestGetProduct_ReadThroughCache verifies the second lookup is served from
cache and that updates invalidate the entry.
*/
func TestGetProduct_ReadThroughCache(t *testing.T) {
	service, _, cache := newTestService()
	ctx := context.Background()

	input := validProduct()
	require.NoError(t, service.CreateProduct(ctx, input))

	first, err := service.GetProduct(ctx, input.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, cache.hits, "first read fills the cache")

	second, err := service.GetProduct(ctx, input.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, cache.hits, "second read is a cache hit")
	assert.Equal(t, first.SKU, second.SKU)

	updated := validProduct()
	updated.Name = "Trailcam X100 Mark II"
	require.NoError(t, service.UpdateProduct(ctx, input.ID, updated))
	assert.Contains(t, cache.invalidated, input.ID)
}

/*
TestDeleteProduct verifies removal, cache invalidation, and the not-found
path for repeated deletion.
*/
func TestDeleteProduct(t *testing.T) {
	service, _, cache := newTestService()
	ctx := context.Background()

	input := validProduct()
	require.NoError(t, service.CreateProduct(ctx, input))

	require.NoError(t, service.DeleteProduct(ctx, input.ID))
	assert.Contains(t, cache.invalidated, input.ID)

	_, err := service.GetProduct(ctx, input.ID)
	require.Error(t, err)
	assert.Equal(t, "NOT_FOUND", apperr.As(err).Code)

	err = service.DeleteProduct(ctx, input.ID)
	require.Error(t, err)
	assert.Equal(t, "NOT_FOUND", apperr.As(err).Code)
}

/*
TestAdjustStock verifies delta application, the zero-delta guard, and the
insufficient-stock conflict.
*/
func TestAdjustStock(t *testing.T) {
	service, _, cache := newTestService()
	ctx := context.Background()

	input := validProduct()
	require.NoError(t, service.CreateProduct(ctx, input))

	t.Run("receives_stock", func(t *testing.T) {
		adjusted, err := service.AdjustStock(ctx, input.ID, 10)
		require.NoError(t, err)
		assert.Equal(t, 35, adjusted.StockQuantity)
		assert.Contains(t, cache.invalidated, input.ID)
	})

	t.Run("reserves_stock", func(t *testing.T) {
		adjusted, err := service.AdjustStock(ctx, input.ID, -35)
		require.NoError(t, err)
		assert.Equal(t, 0, adjusted.StockQuantity)
	})

	t.Run("rejects_zero_delta", func(t *testing.T) {
		_, err := service.AdjustStock(ctx, input.ID, 0)
		require.Error(t, err)
		assert.Equal(t, "VALIDATION_ERROR", apperr.As(err).Code)
	})

	t.Run("rejects_overdraw", func(t *testing.T) {
		_, err := service.AdjustStock(ctx, input.ID, -1)
		require.Error(t, err)
		assert.Equal(t, "CONFLICT", apperr.As(err).Code)
	})
}
