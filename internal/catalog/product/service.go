package product

import (
	"context"
	"log/slog"

	"github.com/stocktrail/stocktrail/internal/platform/validate"
	"github.com/stocktrail/stocktrail/pkg/slug"
	"github.com/stocktrail/stocktrail/pkg/uuid"
)

type Service struct {
	repo   Repository
	cache  Cache
	logger *slog.Logger
}

func NewService(repo Repository, cache Cache, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		cache:  cache,
		logger: logger,
	}
}

func (service *Service) ListProducts(context context.Context, filter Filter, limit, offset int) ([]*Product, int, error) {
	return service.repo.ListProducts(context, filter, limit, offset)
}

func (service *Service) GetProduct(context context.Context, id string) (*Product, error) {
	if cached, ok := service.cache.Get(context, id); ok {
		return cached, nil
	}

	product, err := service.repo.GetProduct(context, id)
	if err != nil {
		return nil, err
	}

	service.cache.Set(context, product)
	return product, nil
}

func validateProduct(product *Product) error {
	validator := &validate.Validator{}
	validator.
		Required(FieldSKU, product.SKU).MaxLen(FieldSKU, product.SKU, 64).
		Required(FieldName, product.Name).MaxLen(FieldName, product.Name, 200).
		Required(FieldBrandID, product.BrandID).UUID(FieldBrandID, product.BrandID)

	if product.SupplierID != nil && *product.SupplierID != "" {
		validator.UUID(FieldSupplierID, *product.SupplierID)
	}
	validator.Custom(FieldPriceCents, product.PriceCents < 0, "Must not be negative")
	validator.Custom(FieldStock, product.StockQuantity < 0, "Must not be negative")

	return validator.Err()
}

func (service *Service) CreateProduct(context context.Context, product *Product) error {
	if err := validateProduct(product); err != nil {
		return err
	}

	product.ID = uuid.New()
	product.Slug = slug.From(product.Name)

	if err := service.repo.CreateProduct(context, product); err != nil {
		return err
	}

	service.logger.Info("product_created",
		slog.String("sku", product.SKU),
		slog.String("name", product.Name))
	return nil
}

func (service *Service) UpdateProduct(context context.Context, id string, product *Product) error {
	product.ID = id
	if err := validateProduct(product); err != nil {
		return err
	}

	product.Slug = slug.From(product.Name)

	if err := service.repo.UpdateProduct(context, product); err != nil {
		return err
	}

	service.cache.Invalidate(context, id)
	service.logger.Info("product_updated", slog.String("product_id", product.ID))
	return nil
}

func (service *Service) DeleteProduct(context context.Context, id string) error {
	if err := service.repo.DeleteProduct(context, id); err != nil {
		return err
	}

	service.cache.Invalidate(context, id)
	service.logger.Warn("product_deleted", slog.String("product_id", id))
	return nil
}

// AdjustStock moves the on-hand quantity by delta (positive receives stock,
// negative reserves it) and returns the updated product.
func (service *Service) AdjustStock(context context.Context, id string, delta int) (*Product, error) {
	validator := &validate.Validator{}
	validator.Custom(FieldDelta, delta == 0, "Must not be zero")
	if err := validator.Err(); err != nil {
		return nil, err
	}

	product, err := service.repo.AdjustStock(context, id, delta)
	if err != nil {
		return nil, err
	}

	service.cache.Invalidate(context, id)
	service.logger.Info("product_stock_adjusted",
		slog.String("product_id", id),
		slog.Int("delta", delta),
		slog.Int("stock_quantity", product.StockQuantity))
	return product, nil
}
