package products

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/almacen-pos/almacen/internal/platform/httpx"
)

var (
	errNameRequired    = httpx.NewError(httpx.ErrValidation, "name requerido")
	errBarcodeRequired = httpx.NewError(httpx.ErrValidation, "barcode requerido")
	errInvalidPrice    = httpx.NewError(httpx.ErrValidation, "price inválido")
	errInvalidStock    = httpx.NewError(httpx.ErrValidation, "stock inválido")
	errInvalidID       = httpx.NewError(httpx.ErrValidation, "id inválido")
	errImageRequired   = httpx.NewError(httpx.ErrValidation, "imageDataUrl requerido")
	errImageFormat     = httpx.NewError(httpx.ErrValidation, "imageDataUrl debe ser data URI base64 (data:image/...;base64,...)")
	errImageTooLarge   = httpx.NewError(httpx.ErrTooLarge, "imagen demasiado grande (>10MB)")
	errDuplicate       = httpx.NewError(httpx.ErrDuplicate, "Ya existe un producto con ese barcode")
	errNotFound        = httpx.NewError(httpx.ErrNotFound, "Not found")
)

var validate = validator.New()

func validateCreate(req *CreateRequest) error {
	req.Name = strings.TrimSpace(req.Name)
	req.Barcode = SanitizeBarcode(req.Barcode).Trimmed
	return structError(validate.Struct(req))
}

func validateUpdate(req *UpdateRequest) error {
	if req.Name != nil {
		trimmed := strings.TrimSpace(*req.Name)
		req.Name = &trimmed
	}
	if req.Barcode != nil {
		trimmed := SanitizeBarcode(*req.Barcode).Trimmed
		req.Barcode = &trimmed
	}
	return structError(validate.Struct(req))
}

// structError maps the first failing field to its API message.
func structError(err error) error {
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return httpx.NewError(httpx.ErrValidation, err.Error())
	}
	switch fieldErrs[0].Field() {
	case "Name":
		return errNameRequired
	case "Barcode":
		return errBarcodeRequired
	default:
		return httpx.NewError(httpx.ErrValidation, fieldErrs[0].Field()+" inválido")
	}
}

// validateImage checks a data URI is base64 encoded and within size bounds.
func validateImage(image string, required bool) error {
	if image == "" {
		if required {
			return errImageRequired
		}
		return nil
	}
	if !strings.HasPrefix(image, "data:") || !strings.Contains(image, ";base64,") {
		return errImageFormat
	}
	if len(image) > MaxImageLength {
		return errImageTooLarge
	}
	return nil
}
