package product

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stocktrail/stocktrail/internal/platform/apperr"
	"github.com/stocktrail/stocktrail/internal/platform/dberr"
)

const productColumns = `id, sku, name, slug, description, brandid, supplierid,
	pricecents, stockquantity, createdat, updatedat`

type PostgresRepository struct {
	db *pgxpool.Pool
}

func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (repository *PostgresRepository) ListProducts(context context.Context, f Filter, limit, offset int) ([]*Product, int, error) {
	query := `
		SELECT ` + productColumns + `
		FROM catalog.product
		WHERE deletedat IS NULL`
	countQuery := `SELECT count(*) FROM catalog.product WHERE deletedat IS NULL`

	args := []any{}
	countArgs := []any{}

	if f.Query != "" {
		searchTerm := "%" + f.Query + "%"
		position := strconv.Itoa(len(args) + 1)
		query += ` AND (name ILIKE $` + position + ` OR sku ILIKE $` + position + `)`
		countQuery += ` AND (name ILIKE $` + position + ` OR sku ILIKE $` + position + `)`
		args = append(args, searchTerm)
		countArgs = append(countArgs, searchTerm)
	}

	if f.BrandID != "" {
		position := strconv.Itoa(len(args) + 1)
		query += ` AND brandid = $` + position
		countQuery += ` AND brandid = $` + position
		args = append(args, f.BrandID)
		countArgs = append(countArgs, f.BrandID)
	}

	query += ` ORDER BY name ASC LIMIT $` + strconv.Itoa(len(args)+1) + ` OFFSET $` + strconv.Itoa(len(args)+2)
	args = append(args, limit, offset)

	var total int
	if err := repository.db.QueryRow(context, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, dberr.Wrap(err, "Product already exists")
	}

	rows, err := repository.db.Query(context, query, args...)
	if err != nil {
		return nil, 0, dberr.Wrap(err, "Product already exists")
	}
	defer rows.Close()

	var products []*Product
	for rows.Next() {
		p := &Product{}
		if err := scanProduct(rows.Scan, p); err != nil {
			return nil, 0, dberr.Wrap(err, "Product already exists")
		}
		products = append(products, p)
	}

	return products, total, nil
}

func (repository *PostgresRepository) GetProduct(context context.Context, id string) (*Product, error) {
	query := `
		SELECT ` + productColumns + `
		FROM catalog.product
		WHERE id = $1 AND deletedat IS NULL`

	p := &Product{}
	if err := scanProduct(repository.db.QueryRow(context, query, id).Scan, p); err != nil {
		return nil, dberr.Wrap(err, "Product already exists")
	}

	return p, nil
}

func (repository *PostgresRepository) CreateProduct(context context.Context, p *Product) error {
	const query = `
		INSERT INTO catalog.product
			(id, sku, name, slug, description, brandid, supplierid, pricecents, stockquantity, createdat, updatedat)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
		RETURNING createdat, updatedat`

	err := repository.db.QueryRow(context, query,
		p.ID, p.SKU, p.Name, p.Slug, p.Description, p.BrandID, p.SupplierID, p.PriceCents, p.StockQuantity,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	return dberr.Wrap(err, "A product with this SKU already exists")
}

func (repository *PostgresRepository) UpdateProduct(context context.Context, p *Product) error {
	const query = `
		UPDATE catalog.product
		SET sku = $2, name = $3, slug = $4, description = $5, brandid = $6,
			supplierid = $7, pricecents = $8, updatedat = NOW()
		WHERE id = $1 AND deletedat IS NULL
		RETURNING stockquantity, updatedat`

	// Stock is deliberately excluded here; AdjustStock owns that column.
	err := repository.db.QueryRow(context, query,
		p.ID, p.SKU, p.Name, p.Slug, p.Description, p.BrandID, p.SupplierID, p.PriceCents,
	).Scan(&p.StockQuantity, &p.UpdatedAt)
	return dberr.Wrap(err, "A product with this SKU already exists")
}

func (repository *PostgresRepository) DeleteProduct(context context.Context, id string) error {
	const query = `UPDATE catalog.product SET deletedat = NOW() WHERE id = $1 AND deletedat IS NULL`

	cmd, err := repository.db.Exec(context, query, id)
	if err != nil {
		return dberr.Wrap(err, "Product already exists")
	}

	if cmd.RowsAffected() == 0 {
		return dberr.ErrNotFound
	}
	return nil
}

func (repository *PostgresRepository) AdjustStock(context context.Context, id string, delta int) (*Product, error) {
	// The guard in the WHERE clause makes the adjustment atomic: two
	// concurrent reservations can never drive the quantity negative.
	query := `
		UPDATE catalog.product
		SET stockquantity = stockquantity + $2, updatedat = NOW()
		WHERE id = $1 AND deletedat IS NULL AND stockquantity + $2 >= 0
		RETURNING ` + productColumns

	p := &Product{}
	err := scanProduct(repository.db.QueryRow(context, query, id, delta).Scan, p)
	if errors.Is(err, pgx.ErrNoRows) {
		// Zero rows means either a missing product or a guard rejection;
		// re-read to tell the two apart.
		if _, lookupErr := repository.GetProduct(context, id); lookupErr != nil {
			return nil, lookupErr
		}
		return nil, apperr.Conflict("Insufficient stock for this adjustment")
	}
	if err != nil {
		return nil, dberr.Wrap(err, "Product already exists")
	}

	return p, nil
}

func scanProduct(scan func(dest ...any) error, p *Product) error {
	return scan(
		&p.ID, &p.SKU, &p.Name, &p.Slug, &p.Description, &p.BrandID, &p.SupplierID,
		&p.PriceCents, &p.StockQuantity, &p.CreatedAt, &p.UpdatedAt,
	)
}
