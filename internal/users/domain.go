// Package users manages back-office accounts for the register front-end.
package users

import "time"

// DefaultRole is assigned to every registered user.
const DefaultRole = "user"

// User represents a back-office account.
type User struct {
	ID           int64
	Name         string
	Direccion    string
	Role         string
	PasswordHash string
	CreatedAt    time.Time
}

// RegisterInput carries the fields of a registration.
type RegisterInput struct {
	Name      string `json:"name" validate:"required,max=120"`
	Direccion string `json:"direccion" validate:"required,max=255"`
	Password  string `json:"password" validate:"required,max=72"`
}

// LoginInput carries login credentials.
type LoginInput struct {
	Name     string `json:"name" validate:"required"`
	Password string `json:"password" validate:"required"`
}
