// Package httpx provides HTTP response utilities.
package httpx

import (
	"errors"
	"net/http"
)

// Sentinel errors for domain layer.
var (
	ErrNotFound     = errors.New("resource not found")
	ErrDuplicate    = errors.New("duplicate entry")
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("unauthorized")
	ErrTooLarge     = errors.New("payload too large")
)

// ClientError pairs a sentinel kind with the message shown to API callers.
type ClientError struct {
	Kind    error
	Message string
}

func (e *ClientError) Error() string { return e.Message }

func (e *ClientError) Unwrap() error { return e.Kind }

// NewError builds a ClientError of the given kind.
func NewError(kind error, message string) error {
	return &ClientError{Kind: kind, Message: message}
}

// StatusOf maps a domain error to its HTTP status.
func StatusOf(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrTooLarge):
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}

// RespondError maps domain errors to JSON error responses. Unknown errors
// produce a 500 carrying fallback, never the underlying detail.
func RespondError(w http.ResponseWriter, err error, fallback string) {
	status := StatusOf(err)
	if status == http.StatusInternalServerError {
		Error(w, status, fallback)
		return
	}
	message := err.Error()
	var ce *ClientError
	if errors.As(err, &ce) {
		message = ce.Message
	}
	Error(w, status, message)
}
