package product

import "context"

type Repository interface {
	ListProducts(context context.Context, f Filter, limit, offset int) ([]*Product, int, error)
	GetProduct(context context.Context, id string) (*Product, error)
	CreateProduct(context context.Context, p *Product) error
	UpdateProduct(context context.Context, p *Product) error
	DeleteProduct(context context.Context, id string) error

	// AdjustStock applies delta atomically and returns the resulting product.
	// A delta that would drive the quantity negative fails without changes.
	AdjustStock(context context.Context, id string, delta int) (*Product, error)
}

// Cache is a read-through layer for single-product lookups. A miss or a
// cache failure falls back to the repository; losing the cache never loses
// data.
type Cache interface {
	Get(context context.Context, id string) (*Product, bool)
	Set(context context.Context, p *Product)
	Invalidate(context context.Context, id string)
}
