package suppliers

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/almacen-pos/almacen/internal/platform/db"
	"github.com/almacen-pos/almacen/internal/shared"
)

// Repository persists suppliers and their product assignments.
type Repository interface {
	List(ctx context.Context) ([]Supplier, error)
	Create(ctx context.Context, nombre string, contacto *string) (Supplier, error)
	Assign(ctx context.Context, a Assignment) error
	ProductsOf(ctx context.Context, supplierID int64) ([]SupplierProduct, error)
	Unassigned(ctx context.Context) ([]SupplierProduct, error)
	Catalog(ctx context.Context) ([]CatalogProduct, error)
	UpdateCost(ctx context.Context, supplierID, productID int64, costo decimal.Decimal) error
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository returns a Postgres backed Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool}
}

func (r *repository) List(ctx context.Context) ([]Supplier, error) {
	rows, err := r.db.Query(ctx, `SELECT id, nombre, contacto, creado_en FROM proveedores ORDER BY nombre ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Supplier{}
	for rows.Next() {
		var s Supplier
		if err := rows.Scan(&s.ID, &s.Nombre, &s.Contacto, &s.CreadoEn); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *repository) Create(ctx context.Context, nombre string, contacto *string) (Supplier, error) {
	var s Supplier
	err := r.db.QueryRow(ctx, `INSERT INTO proveedores (nombre, contacto) VALUES ($1, $2)
RETURNING id, nombre, contacto, creado_en`, nombre, contacto).Scan(&s.ID, &s.Nombre, &s.Contacto, &s.CreadoEn)
	if db.IsUniqueViolation(err) {
		return Supplier{}, shared.ErrDuplicate
	}
	return s, err
}

// Assign upserts every product of the assignment in one statement.
func (r *repository) Assign(ctx context.Context, a Assignment) error {
	_, err := r.db.Exec(ctx, `INSERT INTO productos_proveedores (proveedor_id, producto_id, costo)
SELECT $1, producto_id, $3 FROM unnest($2::bigint[]) AS producto_id
ON CONFLICT (proveedor_id, producto_id) DO UPDATE SET costo = EXCLUDED.costo`, a.ProveedorID, a.Productos, a.Costo)
	if db.IsForeignKeyViolation(err) {
		return shared.ErrNotFound
	}
	return err
}

func (r *repository) ProductsOf(ctx context.Context, supplierID int64) ([]SupplierProduct, error) {
	return r.supplierProducts(ctx, `SELECT p.id, p.name, p.barcode, p.price, pp.costo
FROM productos_proveedores pp
JOIN products p ON p.id = pp.producto_id
WHERE pp.proveedor_id = $1
ORDER BY p.name ASC, p.id ASC`, supplierID)
}

func (r *repository) Unassigned(ctx context.Context) ([]SupplierProduct, error) {
	return r.supplierProducts(ctx, `SELECT p.id, p.name, p.barcode, p.price, 0::numeric
FROM products p
WHERE NOT EXISTS (SELECT 1 FROM productos_proveedores pp WHERE pp.producto_id = p.id)
ORDER BY p.name ASC, p.id ASC`)
}

func (r *repository) Catalog(ctx context.Context) ([]CatalogProduct, error) {
	rows, err := r.db.Query(ctx, `SELECT p.id, p.name, p.barcode, p.price, pv.id, pv.nombre, pp.costo
FROM products p
LEFT JOIN productos_proveedores pp ON pp.producto_id = p.id
LEFT JOIN proveedores pv ON pv.id = pp.proveedor_id
ORDER BY p.name ASC, p.id ASC, pv.nombre ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []CatalogProduct{}
	for rows.Next() {
		var (
			c     CatalogProduct
			price decimal.NullDecimal
			costo decimal.NullDecimal
		)
		if err := rows.Scan(&c.ID, &c.Name, &c.Barcode, &price, &c.ProveedorID, &c.ProveedorNombre, &costo); err != nil {
			return nil, err
		}
		c.Price = nullable(price)
		c.Costo = nullable(costo)
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *repository) UpdateCost(ctx context.Context, supplierID, productID int64, costo decimal.Decimal) error {
	tag, err := r.db.Exec(ctx, `UPDATE productos_proveedores SET costo = $1 WHERE proveedor_id = $2 AND producto_id = $3`, costo, supplierID, productID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) supplierProducts(ctx context.Context, query string, args ...any) ([]SupplierProduct, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []SupplierProduct{}
	for rows.Next() {
		var (
			p     SupplierProduct
			price decimal.NullDecimal
		)
		if err := rows.Scan(&p.ID, &p.Name, &p.Barcode, &price, &p.Costo); err != nil {
			return nil, err
		}
		p.Price = nullable(price)
		out = append(out, p)
	}
	return out, rows.Err()
}

func nullable(d decimal.NullDecimal) *decimal.Decimal {
	if !d.Valid {
		return nil
	}
	return &d.Decimal
}
