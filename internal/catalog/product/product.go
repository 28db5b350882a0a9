package product

import "time"

// Product is a sellable catalog item. Price is stored in cents to keep
// arithmetic exact.
type Product struct {
	ID            string     `json:"id"`
	SKU           string     `json:"sku"`
	Name          string     `json:"name"`
	Slug          string     `json:"slug"`
	Description   *string    `json:"description"`
	BrandID       string     `json:"brand_id"`
	SupplierID    *string    `json:"supplier_id"`
	PriceCents    int64      `json:"price_cents"`
	StockQuantity int        `json:"stock_quantity"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	DeletedAt     *time.Time `json:"-"` // soft-delete tracker
}

// Filter holds the parameters for a paginated product search.
type Filter struct {
	Query   string // Matched against name and sku
	BrandID string
}

const (
	FieldSKU         = "sku"
	FieldName        = "name"
	FieldDescription = "description"
	FieldBrandID     = "brand_id"
	FieldSupplierID  = "supplier_id"
	FieldPriceCents  = "price_cents"
	FieldStock       = "stock_quantity"
	FieldDelta       = "delta"
)
