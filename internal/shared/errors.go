package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate indicates a unique key is already taken.
	ErrDuplicate = errors.New("duplicate")
)
