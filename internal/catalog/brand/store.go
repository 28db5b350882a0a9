package brand

import "context"

type Repository interface {
	ListBrands(context context.Context, f Filter, limit, offset int) ([]*Brand, int, error)
	GetBrand(context context.Context, id string) (*Brand, error)
	CreateBrand(context context.Context, b *Brand) error
	UpdateBrand(context context.Context, b *Brand) error
	DeleteBrand(context context.Context, id string) error
}

// Cache is a read-through layer for single-brand lookups. A miss or a cache
// failure falls back to the repository; losing the cache never loses data.
type Cache interface {
	Get(context context.Context, id string) (*Brand, bool)
	Set(context context.Context, b *Brand)
	Invalidate(context context.Context, id string)
}
