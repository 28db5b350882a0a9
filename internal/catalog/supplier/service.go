package supplier

import (
	"context"
	"log/slog"

	"github.com/stocktrail/stocktrail/internal/platform/validate"
	"github.com/stocktrail/stocktrail/pkg/uuid"
)

type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

func (service *Service) ListSuppliers(context context.Context, filter Filter, limit, offset int) ([]*Supplier, int, error) {
	return service.repo.ListSuppliers(context, filter, limit, offset)
}

func (service *Service) GetSupplier(context context.Context, id string) (*Supplier, error) {
	return service.repo.GetSupplier(context, id)
}

func (service *Service) CreateSupplier(context context.Context, supplier *Supplier) error {
	if supplier.Status == "" {
		supplier.Status = StatusActive
	}
	if err := validateSupplier(supplier); err != nil {
		return err
	}

	supplier.ID = uuid.New()

	if err := service.repo.CreateSupplier(context, supplier); err != nil {
		return err
	}

	service.logger.Info("supplier_created", slog.String("name", supplier.Name))
	return nil
}

func (service *Service) UpdateSupplier(context context.Context, id string, supplier *Supplier) error {
	supplier.ID = id
	if err := validateSupplier(supplier); err != nil {
		return err
	}

	if err := service.repo.UpdateSupplier(context, supplier); err != nil {
		return err
	}

	service.logger.Info("supplier_updated", slog.String("supplier_id", supplier.ID))
	return nil
}

func (service *Service) DeleteSupplier(context context.Context, id string) error {
	if err := service.repo.DeleteSupplier(context, id); err != nil {
		return err
	}

	service.logger.Warn("supplier_deleted", slog.String("supplier_id", id))
	return nil
}

func validateSupplier(supplier *Supplier) error {
	validator := &validate.Validator{}
	validator.
		Required(FieldName, supplier.Name).MaxLen(FieldName, supplier.Name, 200).
		OneOf(FieldStatus, supplier.Status, StatusActive, StatusInactive)

	if supplier.ContactEmail != nil && *supplier.ContactEmail != "" {
		validator.Email(FieldContactEmail, *supplier.ContactEmail)
	}

	return validator.Err()
}
