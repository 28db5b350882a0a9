package supplier

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

func (repository *PostgresRepository) ListSuppliers(context context.Context, f Filter, limit, offset int) ([]*Supplier, int, error) {
	query := `
		SELECT id, name, contactname, contactemail, contactnumber, address, status, createdat, updatedat
		FROM catalog.supplier
		WHERE deletedat IS NULL`
	countQuery := `SELECT count(*) FROM catalog.supplier WHERE deletedat IS NULL`

	args := []any{}
	countArgs := []any{}

	if f.Query != "" {
		searchTerm := "%" + f.Query + "%"
		query += ` AND (name ILIKE $1 OR contactname ILIKE $1)`
		countQuery += ` AND (name ILIKE $1 OR contactname ILIKE $1)`
		args = append(args, searchTerm)
		countArgs = append(countArgs, searchTerm)
	}

	if f.Status != "" {
		position := strconv.Itoa(len(args) + 1)
		query += ` AND status = $` + position
		countQuery += ` AND status = $` + position
		args = append(args, f.Status)
		countArgs = append(countArgs, f.Status)
	}

	query += ` ORDER BY name ASC LIMIT $` + strconv.Itoa(len(args)+1) + ` OFFSET $` + strconv.Itoa(len(args)+2)
	args = append(args, limit, offset)

	var total int
	if err := repository.db.QueryRow(context, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, dberr.Wrap(err, "Supplier already exists")
	}

	rows, err := repository.db.Query(context, query, args...)
	if err != nil {
		return nil, 0, dberr.Wrap(err, "Supplier already exists")
	}
	defer rows.Close()

	var suppliers []*Supplier
	for rows.Next() {
		s := &Supplier{}
		if err := rows.Scan(&s.ID, &s.Name, &s.ContactName, &s.ContactEmail, &s.ContactNumber, &s.Address, &s.Status, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, 0, dberr.Wrap(err, "Supplier already exists")
		}
		suppliers = append(suppliers, s)
	}

	return suppliers, total, nil
}

func (repository *PostgresRepository) GetSupplier(context context.Context, id string) (*Supplier, error) {
	const query = `
		SELECT id, name, contactname, contactemail, contactnumber, address, status, createdat, updatedat
		FROM catalog.supplier
		WHERE id = $1 AND deletedat IS NULL`

	s := &Supplier{}
	err := repository.db.QueryRow(context, query, id).Scan(
		&s.ID, &s.Name, &s.ContactName, &s.ContactEmail, &s.ContactNumber, &s.Address, &s.Status, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, dberr.Wrap(err, "Supplier already exists")
	}

	return s, nil
}

func (repository *PostgresRepository) CreateSupplier(context context.Context, s *Supplier) error {
	const query = `
		INSERT INTO catalog.supplier (id, name, contactname, contactemail, contactnumber, address, status, createdat, updatedat)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		RETURNING createdat, updatedat`

	err := repository.db.QueryRow(context, query,
		s.ID, s.Name, s.ContactName, s.ContactEmail, s.ContactNumber, s.Address, s.Status,
	).Scan(&s.CreatedAt, &s.UpdatedAt)
	return dberr.Wrap(err, "A supplier with this name already exists")
}

func (repository *PostgresRepository) UpdateSupplier(context context.Context, s *Supplier) error {
	const query = `
		UPDATE catalog.supplier
		SET name = $2, contactname = $3, contactemail = $4, contactnumber = $5, address = $6, status = $7, updatedat = NOW()
		WHERE id = $1 AND deletedat IS NULL
		RETURNING updatedat`

	err := repository.db.QueryRow(context, query,
		s.ID, s.Name, s.ContactName, s.ContactEmail, s.ContactNumber, s.Address, s.Status,
	).Scan(&s.UpdatedAt)
	return dberr.Wrap(err, "A supplier with this name already exists")
}

func (repository *PostgresRepository) DeleteSupplier(context context.Context, id string) error {
	const query = `UPDATE catalog.supplier SET deletedat = NOW() WHERE id = $1 AND deletedat IS NULL`

	cmd, err := repository.db.Exec(context, query, id)
	if err != nil {
		return dberr.Wrap(err, "Supplier already exists")
	}

	if cmd.RowsAffected() == 0 {
		return dberr.ErrNotFound
	}
	return nil
}
