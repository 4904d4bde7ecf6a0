// Package suppliers tracks suppliers and the cost at which each one
// provides catalog products.
package suppliers

import (
	"time"

	"github.com/shopspring/decimal"
)

// Supplier is a vendor of catalog products.
type Supplier struct {
	ID       int64
	Nombre   string
	Contacto *string
	CreadoEn time.Time
}

// SupplierProduct is a product assigned to a supplier with its cost.
type SupplierProduct struct {
	ID      int64
	Name    string
	Barcode string
	Price   *decimal.Decimal
	Costo   decimal.Decimal
}

// CatalogProduct is a product with its supplier, if any.
type CatalogProduct struct {
	ID              int64
	Name            string
	Barcode         string
	Price           *decimal.Decimal
	ProveedorID     *int64
	ProveedorNombre *string
	Costo           *decimal.Decimal
}

// Assignment links products to a supplier at a cost.
type Assignment struct {
	ProveedorID int64
	Productos   []int64
	Costo       decimal.Decimal
}
