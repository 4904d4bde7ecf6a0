// Package products manages the sellable catalog scanned at the register.
package products

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultStock is assigned when a product is created without stock.
const DefaultStock = 10

// MaxImageLength bounds the size of a stored data URI.
const MaxImageLength = 10_000_000

// Product represents a catalog entry.
type Product struct {
	ID          int64            `json:"id"`
	Name        string           `json:"name"`
	Price       *decimal.Decimal `json:"price"`
	Stock       int              `json:"stock"`
	Barcode     string           `json:"barcode"`
	Description *string          `json:"description"`
	Image       *string          `json:"image,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// ImageURL returns the stored image as a data URI. Raw base64 payloads are
// assumed to be webp.
func (p Product) ImageURL() *string {
	if p.Image == nil || *p.Image == "" {
		return nil
	}
	img := *p.Image
	if strings.HasPrefix(img, "data:") {
		return &img
	}
	if len(img) > 100 && isBase64(img) {
		uri := "data:image/webp;base64," + img
		return &uri
	}
	return &img
}

func isBase64(s string) bool {
	for _, r := range s {
		switch {
		case r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z', r >= '0' && r <= '9':
		case r == '+', r == '/', r == '=':
		default:
			return false
		}
	}
	return true
}

// Barcode holds the two forms used when looking a product up by barcode.
type Barcode struct {
	Trimmed    string
	DigitsOnly string
}

// SanitizeBarcode trims the scanned code and derives its digits-only form.
func SanitizeBarcode(code string) Barcode {
	trimmed := strings.TrimSpace(code)
	var b strings.Builder
	for _, r := range trimmed {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return Barcode{Trimmed: trimmed, DigitsOnly: b.String()}
}

// ListFilter narrows a product listing.
type ListFilter struct {
	Search string
	Limit  int
	Offset int
}
