package caja

import "errors"

// Error kinds surfaced by the ledger. Use errors.Is against these.
var (
	ErrValidation   = errors.New("caja: validation failed")
	ErrConflict     = errors.New("caja: conflict")
	ErrPrecondition = errors.New("caja: precondition failed")
	ErrNotFound     = errors.New("caja: not found")
	ErrStore        = errors.New("caja: store failure")
)

// Error is a ledger failure of a given Kind. Message is safe to show to API
// callers; Err holds the underlying cause and is only logged.
type Error struct {
	Kind    error
	Field   string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Is matches the error kind.
func (e *Error) Is(target error) bool {
	return target == e.Kind
}

func (e *Error) Unwrap() error {
	return e.Err
}

var (
	errInvalidOpeningAmount = &Error{Kind: ErrValidation, Field: "opening_amount", Message: "Monto inicial inválido"}
	errInvalidAmount        = &Error{Kind: ErrValidation, Field: "amount", Message: "Monto inválido"}
	errInvalidKind          = &Error{Kind: ErrValidation, Field: "kind", Message: "Tipo inválido"}
	errInvalidBody          = &Error{Kind: ErrValidation, Message: "JSON inválido"}
	errInvalidID            = &Error{Kind: ErrValidation, Field: "id", Message: "id inválido"}
	errInvalidLimit         = &Error{Kind: ErrValidation, Field: "limit", Message: "limit inválido"}
	errInvalidOffset        = &Error{Kind: ErrValidation, Field: "offset", Message: "offset inválido"}
	errSessionAlreadyOpen   = &Error{Kind: ErrConflict, Message: "Ya hay una caja abierta"}
	errNoOpenSession        = &Error{Kind: ErrPrecondition, Message: "No hay caja abierta"}
	errSessionNotFound      = &Error{Kind: ErrNotFound, Message: "Sesión no encontrada"}
)

func storeError(err error) error {
	return &Error{Kind: ErrStore, Message: "store failure", Err: err}
}
