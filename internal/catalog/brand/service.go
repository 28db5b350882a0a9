package brand

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

func (service *Service) ListBrands(context context.Context, filter Filter, limit, offset int) ([]*Brand, int, error) {
	return service.repo.ListBrands(context, filter, limit, offset)
}

func (service *Service) GetBrand(context context.Context, id string) (*Brand, error) {
	if cached, ok := service.cache.Get(context, id); ok {
		return cached, nil
	}

	brand, err := service.repo.GetBrand(context, id)
	if err != nil {
		return nil, err
	}

	service.cache.Set(context, brand)
	return brand, nil
}

func (service *Service) CreateBrand(context context.Context, brand *Brand) error {
	validator := &validate.Validator{}
	validator.Required(FieldName, brand.Name).MaxLen(FieldName, brand.Name, 200)

	if brand.LogoURL != nil && *brand.LogoURL != "" {
		validator.URL(FieldLogoURL, *brand.LogoURL)
	}

	if err := validator.Err(); err != nil {
		return err
	}

	brand.ID = uuid.New()
	brand.Slug = slug.From(brand.Name)

	if err := service.repo.CreateBrand(context, brand); err != nil {
		return err
	}

	service.logger.Info("brand_created", slog.String("name", brand.Name))
	return nil
}

func (service *Service) UpdateBrand(context context.Context, id string, brand *Brand) error {
	brand.ID = id
	validator := &validate.Validator{}
	validator.Required(FieldName, brand.Name).MaxLen(FieldName, brand.Name, 200)

	if brand.LogoURL != nil && *brand.LogoURL != "" {
		validator.URL(FieldLogoURL, *brand.LogoURL)
	}

	if err := validator.Err(); err != nil {
		return err
	}

	brand.Slug = slug.From(brand.Name)

	if err := service.repo.UpdateBrand(context, brand); err != nil {
		return err
	}

	service.cache.Invalidate(context, id)
	service.logger.Info("brand_updated", slog.String("brand_id", brand.ID))
	return nil
}

func (service *Service) DeleteBrand(context context.Context, id string) error {
	if err := service.repo.DeleteBrand(context, id); err != nil {
		return err
	}

	service.cache.Invalidate(context, id)
	service.logger.Warn("brand_deleted", slog.String("brand_id", id))
	return nil
}
