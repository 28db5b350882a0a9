package brand

import (
	"context"
	"strconv"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stocktrail/stocktrail/internal/platform/dberr"
)

type PostgresRepository struct {
	db *pgxpool.Pool
}

func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (repository *PostgresRepository) ListBrands(context context.Context, f Filter, limit, offset int) ([]*Brand, int, error) {
	query := `
		SELECT id, name, slug, description, logourl, createdat, updatedat
		FROM catalog.brand
		WHERE deletedat IS NULL`
	countQuery := `SELECT count(*) FROM catalog.brand WHERE deletedat IS NULL`

	args := []any{}
	countArgs := []any{}

	if f.Query != "" {
		searchTerm := "%" + f.Query + "%"
		query += ` AND name ILIKE $1`
		countQuery += ` AND name ILIKE $1`
		args = append(args, searchTerm)
		countArgs = append(countArgs, searchTerm)
	}

	query += ` ORDER BY name ASC LIMIT $` + strconv.Itoa(len(args)+1) + ` OFFSET $` + strconv.Itoa(len(args)+2)
	args = append(args, limit, offset)

	var total int
	if err := repository.db.QueryRow(context, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, dberr.Wrap(err, "Brand already exists")
	}

	rows, err := repository.db.Query(context, query, args...)
	if err != nil {
		return nil, 0, dberr.Wrap(err, "Brand already exists")
	}
	defer rows.Close()

	var brands []*Brand
	for rows.Next() {
		b := &Brand{}
		if err := rows.Scan(&b.ID, &b.Name, &b.Slug, &b.Description, &b.LogoURL, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, 0, dberr.Wrap(err, "Brand already exists")
		}
		brands = append(brands, b)
	}

	return brands, total, nil
}

func (repository *PostgresRepository) GetBrand(context context.Context, id string) (*Brand, error) {
	const query = `
		SELECT id, name, slug, description, logourl, createdat, updatedat
		FROM catalog.brand
		WHERE id = $1 AND deletedat IS NULL`

	b := &Brand{}
	err := repository.db.QueryRow(context, query, id).Scan(
		&b.ID, &b.Name, &b.Slug, &b.Description, &b.LogoURL, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, dberr.Wrap(err, "Brand already exists")
	}

	return b, nil
}

func (repository *PostgresRepository) CreateBrand(context context.Context, b *Brand) error {
	const query = `
		INSERT INTO catalog.brand (id, name, slug, description, logourl, createdat, updatedat)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		RETURNING createdat, updatedat`

	err := repository.db.QueryRow(context, query, b.ID, b.Name, b.Slug, b.Description, b.LogoURL).
		Scan(&b.CreatedAt, &b.UpdatedAt)
	return dberr.Wrap(err, "A brand with this name already exists")
}

func (repository *PostgresRepository) UpdateBrand(context context.Context, b *Brand) error {
	const query = `
		UPDATE catalog.brand
		SET name = $2, slug = $3, description = $4, logourl = $5, updatedat = NOW()
		WHERE id = $1 AND deletedat IS NULL
		RETURNING updatedat`

	err := repository.db.QueryRow(context, query, b.ID, b.Name, b.Slug, b.Description, b.LogoURL).
		Scan(&b.UpdatedAt)
	return dberr.Wrap(err, "A brand with this name already exists")
}

func (repository *PostgresRepository) DeleteBrand(context context.Context, id string) error {
	const query = `UPDATE catalog.brand SET deletedat = NOW() WHERE id = $1 AND deletedat IS NULL`

	cmd, err := repository.db.Exec(context, query, id)
	if err != nil {
		return dberr.Wrap(err, "Brand already exists")
	}

	if cmd.RowsAffected() == 0 {
		return dberr.ErrNotFound
	}
	return nil
}
