package products

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/almacen-pos/almacen/internal/platform/db"
	"github.com/almacen-pos/almacen/internal/shared"
)

// Repository persists products.
type Repository interface {
	List(ctx context.Context, filter ListFilter) ([]Product, error)
	Get(ctx context.Context, id int64) (Product, error)
	FindByBarcode(ctx context.Context, code string) (Product, error)
	FindByBarcodeDigits(ctx context.Context, digits string) (Product, error)
	Create(ctx context.Context, product Product) (Product, error)
	Update(ctx context.Context, product Product) (Product, error)
	UpdateImage(ctx context.Context, id int64, image string) error
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository returns a Postgres backed Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool}
}

const productColumns = `id, name, price, stock, barcode, description, image, created_at, updated_at`

func (r *repository) List(ctx context.Context, filter ListFilter) ([]Product, error) {
	query := `SELECT ` + productColumns + ` FROM products`
	args := []any{}
	if filter.Search != "" {
		query += ` WHERE search_name LIKE $1 OR barcode LIKE $2`
		args = append(args, "%"+SearchKey(filter.Search)+"%", "%"+filter.Search+"%")
	}
	query += fmt.Sprintf(` ORDER BY name ASC, id ASC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := []Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Product, error) {
	return r.one(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
}

func (r *repository) FindByBarcode(ctx context.Context, code string) (Product, error) {
	return r.one(ctx, `SELECT `+productColumns+` FROM products WHERE barcode = $1 LIMIT 1`, code)
}

func (r *repository) FindByBarcodeDigits(ctx context.Context, digits string) (Product, error) {
	return r.one(ctx, `SELECT `+productColumns+` FROM products
WHERE regexp_replace(barcode, '\s', '', 'g') = $1
ORDER BY id LIMIT 1`, digits)
}

func (r *repository) Create(ctx context.Context, p Product) (Product, error) {
	now := time.Now().UTC()
	row := r.db.QueryRow(ctx, `INSERT INTO products (name, search_name, price, stock, barcode, description, image, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
RETURNING `+productColumns,
		p.Name, SearchKey(p.Name), nullableDecimal(p.Price), p.Stock, p.Barcode, p.Description, p.Image, now)
	created, err := scanProduct(row)
	if db.IsUniqueViolation(err) {
		return Product{}, shared.ErrDuplicate
	}
	return created, err
}

func (r *repository) Update(ctx context.Context, p Product) (Product, error) {
	row := r.db.QueryRow(ctx, `UPDATE products
SET name = $1, search_name = $2, price = $3, stock = $4, barcode = $5, description = $6, updated_at = $7
WHERE id = $8
RETURNING `+productColumns,
		p.Name, SearchKey(p.Name), nullableDecimal(p.Price), p.Stock, p.Barcode, p.Description, time.Now().UTC(), p.ID)
	updated, err := scanProduct(row)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return Product{}, shared.ErrNotFound
	case db.IsUniqueViolation(err):
		return Product{}, shared.ErrDuplicate
	}
	return updated, err
}

func (r *repository) UpdateImage(ctx context.Context, id int64, image string) error {
	tag, err := r.db.Exec(ctx, `UPDATE products SET image = $1, updated_at = NOW() WHERE id = $2`, image, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) one(ctx context.Context, query string, args ...any) (Product, error) {
	p, err := scanProduct(r.db.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, shared.ErrNotFound
	}
	return p, err
}

func scanProduct(row pgx.Row) (Product, error) {
	var (
		p     Product
		price decimal.NullDecimal
	)
	if err := row.Scan(&p.ID, &p.Name, &price, &p.Stock, &p.Barcode, &p.Description, &p.Image, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return Product{}, err
	}
	if price.Valid {
		p.Price = &price.Decimal
	}
	return p, nil
}

func nullableDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}
