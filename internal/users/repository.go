package users

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/almacen-pos/almacen/internal/platform/db"
	"github.com/almacen-pos/almacen/internal/shared"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a user, returning shared.ErrDuplicate when the name is taken.
func (r *Repository) Create(ctx context.Context, u User) (User, error) {
	err := r.pool.QueryRow(ctx, `INSERT INTO users (name, direccion, role, password_hash)
VALUES ($1, $2, $3, $4)
RETURNING id, created_at`, u.Name, u.Direccion, u.Role, u.PasswordHash).Scan(&u.ID, &u.CreatedAt)
	if db.IsUniqueViolation(err) {
		return User{}, shared.ErrDuplicate
	}
	return u, err
}

// FindByName loads a user by login name.
func (r *Repository) FindByName(ctx context.Context, name string) (User, error) {
	var u User
	err := r.pool.QueryRow(ctx, `SELECT id, name, direccion, role, password_hash, created_at
FROM users WHERE name = $1`, name).Scan(&u.ID, &u.Name, &u.Direccion, &u.Role, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, shared.ErrNotFound
	}
	return u, err
}
