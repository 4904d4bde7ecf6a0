package users

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/almacen-pos/almacen/internal/platform/httpx"
	"github.com/almacen-pos/almacen/internal/shared"
)

var (
	errMissingFields      = httpx.NewError(httpx.ErrValidation, "Faltan campos")
	errUserExists         = httpx.NewError(httpx.ErrDuplicate, "Usuario ya existe")
	errInvalidCredentials = httpx.NewError(httpx.ErrUnauthorized, "Credenciales inválidas")
)

// RepositoryPort defines data access methods for users.
type RepositoryPort interface {
	Create(ctx context.Context, u User) (User, error)
	FindByName(ctx context.Context, name string) (User, error)
}

// Service handles user business logic.
type Service struct {
	repo      RepositoryPort
	validator *validator.Validate
	cost      int
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo, validator: validator.New(), cost: bcrypt.DefaultCost}
}

// WithHashCost overrides the bcrypt cost; tests use bcrypt.MinCost.
func (s *Service) WithHashCost(cost int) {
	s.cost = cost
}

// Register creates an account with a bcrypt password hash.
func (s *Service) Register(ctx context.Context, in RegisterInput) (User, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Direccion = strings.TrimSpace(in.Direccion)
	if err := s.validator.Struct(in); err != nil {
		return User{}, errMissingFields
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return User{}, err
	}
	u, err := s.repo.Create(ctx, User{Name: in.Name, Direccion: in.Direccion, Role: DefaultRole, PasswordHash: string(hash)})
	if errors.Is(err, shared.ErrDuplicate) {
		return User{}, errUserExists
	}
	return u, err
}

// Authenticate validates name/password credentials.
func (s *Service) Authenticate(ctx context.Context, in LoginInput) (User, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := s.validator.Struct(in); err != nil {
		return User{}, errMissingFields
	}
	u, err := s.repo.FindByName(ctx, in.Name)
	if errors.Is(err, shared.ErrNotFound) {
		return User{}, errInvalidCredentials
	}
	if err != nil {
		return User{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(in.Password)); err != nil {
		return User{}, errInvalidCredentials
	}
	return u, nil
}
