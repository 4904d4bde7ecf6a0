package products

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/almacen-pos/almacen/internal/shared"
)

// CreateRequest is the body of POST /api/products.
type CreateRequest struct {
	Name         string          `json:"name" validate:"required,max=255"`
	Barcode      string          `json:"barcode" validate:"required,max=64"`
	Price        json.RawMessage `json:"price"`
	Stock        json.RawMessage `json:"stock"`
	Description  *string         `json:"description"`
	ImageDataURL string          `json:"imageDataUrl"`
}

// UpdateRequest is the body of PUT /api/products/{id}. Absent fields are
// left untouched.
type UpdateRequest struct {
	Name        *string         `json:"name" validate:"omitnil,min=1,max=255"`
	Barcode     *string         `json:"barcode" validate:"omitnil,min=1,max=64"`
	Price       json.RawMessage `json:"price"`
	Stock       json.RawMessage `json:"stock"`
	Description *string         `json:"description"`
}

// ImageRequest is the body of PUT /api/products/{id}/image.
type ImageRequest struct {
	ImageDataURL string `json:"imageDataUrl"`
}

// View is the JSON shape returned to the register front-end.
type View struct {
	ID          int64        `json:"id"`
	Name        string       `json:"name"`
	Price       *json.Number `json:"price"`
	Stock       int          `json:"stock"`
	Barcode     string       `json:"barcode"`
	Description *string      `json:"description"`
	ImageURL    *string      `json:"image_url"`
}

// ToView renders a product for API responses.
func ToView(p Product) View {
	v := View{
		ID:          p.ID,
		Name:        p.Name,
		Stock:       p.Stock,
		Barcode:     p.Barcode,
		Description: p.Description,
		ImageURL:    p.ImageURL(),
	}
	if p.Price != nil {
		n := json.Number(p.Price.String())
		v.Price = &n
	}
	return v
}

// rawText unwraps a JSON scalar to its text. Strings are unquoted; null and
// absent values yield "".
func rawText(raw json.RawMessage) (string, bool) {
	text := strings.TrimSpace(string(raw))
	if text == "" || text == "null" {
		return "", true
	}
	if strings.HasPrefix(text, `"`) {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", false
		}
		return strings.TrimSpace(s), true
	}
	return text, true
}

func parsePrice(raw json.RawMessage) (*decimal.Decimal, error) {
	text, ok := rawText(raw)
	if !ok {
		return nil, errInvalidPrice
	}
	if text == "" {
		return nil, nil
	}
	price, ok := shared.ParseAmount(text)
	if !ok || price.IsNegative() || !shared.AmountInRange(price) {
		return nil, errInvalidPrice
	}
	price = price.Round(shared.MoneyScale)
	return &price, nil
}

func parseStock(raw json.RawMessage) (*int, error) {
	text, ok := rawText(raw)
	if !ok {
		return nil, errInvalidStock
	}
	if text == "" {
		return nil, nil
	}
	n, ok := shared.ParseAmount(text)
	if !ok || n.IsNegative() || !n.Equal(n.Truncate(0)) || n.GreaterThan(decimal.NewFromInt(1<<31-1)) {
		return nil, errInvalidStock
	}
	stock := int(n.IntPart())
	return &stock, nil
}
