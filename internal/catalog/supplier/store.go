package supplier

import "context"

type Repository interface {
	ListSuppliers(context context.Context, f Filter, limit, offset int) ([]*Supplier, int, error)
	GetSupplier(context context.Context, id string) (*Supplier, error)
	CreateSupplier(context context.Context, s *Supplier) error
	UpdateSupplier(context context.Context, s *Supplier) error
	DeleteSupplier(context context.Context, id string) error
}
