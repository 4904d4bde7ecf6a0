package suppliers

import (
	"encoding/json"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/almacen-pos/almacen/internal/platform/httpx"
	"github.com/almacen-pos/almacen/internal/shared"
)

var (
	errInvalidData  = httpx.NewError(httpx.ErrValidation, "Datos inválidos")
	errInvalidID    = httpx.NewError(httpx.ErrValidation, "id inválido")
	errInvalidCost  = httpx.NewError(httpx.ErrValidation, "costo inválido")
	errNameRequired = httpx.NewError(httpx.ErrValidation, "nombre requerido")
	errDuplicate    = httpx.NewError(httpx.ErrDuplicate, "Ya existe un proveedor con ese nombre")
	errUnknownRef   = httpx.NewError(httpx.ErrNotFound, "Proveedor o producto inexistente")
	errNotAssigned  = httpx.NewError(httpx.ErrNotFound, "El producto no está asignado a ese proveedor")
)

var validate = validator.New()

// AssignRequest is the body of POST /api/proveedores/productos/asignar.
type AssignRequest struct {
	ProveedorID int64           `json:"proveedor_id" validate:"required,gt=0"`
	Productos   []int64         `json:"productos" validate:"required,min=1,dive,gt=0"`
	Costo       json.RawMessage `json:"costo"`
}

// CostRequest is the body of PUT /api/proveedores/{proveedorId}/productos/{productoId}.
type CostRequest struct {
	Costo json.RawMessage `json:"costo"`
}

// CreateRequest is the body of POST /api/proveedores.
type CreateRequest struct {
	Nombre   string  `json:"nombre" validate:"required,max=255"`
	Contacto *string `json:"contacto" validate:"omitnil,max=255"`
}

// parseCost reads a non-negative cost. Absent or null costs are zero unless
// required.
func parseCost(raw json.RawMessage, required bool) (decimal.Decimal, error) {
	text := strings.TrimSpace(string(raw))
	if text == "" || text == "null" {
		if required {
			return decimal.Zero, errInvalidCost
		}
		return decimal.Zero, nil
	}
	if strings.HasPrefix(text, `"`) {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return decimal.Zero, errInvalidCost
		}
		text = strings.TrimSpace(s)
	}
	cost, ok := shared.ParseAmount(text)
	if !ok || cost.IsNegative() || !shared.AmountInRange(cost) {
		return decimal.Zero, errInvalidCost
	}
	return cost.Round(shared.MoneyScale), nil
}
