package suppliers

import (
	"context"
	"errors"
	"strings"

	"github.com/almacen-pos/almacen/internal/shared"
)

// Service implements supplier use cases.
type Service struct {
	repo Repository
}

// NewService constructs a Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns suppliers ordered by name.
func (s *Service) List(ctx context.Context) ([]Supplier, error) {
	return s.repo.List(ctx)
}

// Create registers a supplier.
func (s *Service) Create(ctx context.Context, req CreateRequest) (Supplier, error) {
	req.Nombre = strings.TrimSpace(req.Nombre)
	if err := validate.Struct(req); err != nil {
		if req.Nombre == "" {
			return Supplier{}, errNameRequired
		}
		return Supplier{}, errInvalidData
	}
	sup, err := s.repo.Create(ctx, req.Nombre, req.Contacto)
	if errors.Is(err, shared.ErrDuplicate) {
		return Supplier{}, errDuplicate
	}
	return sup, err
}

// Assign links products to a supplier, replacing the cost of existing links.
func (s *Service) Assign(ctx context.Context, req AssignRequest) (Assignment, error) {
	if err := validate.Struct(req); err != nil {
		return Assignment{}, errInvalidData
	}
	cost, err := parseCost(req.Costo, false)
	if err != nil {
		return Assignment{}, err
	}
	a := Assignment{ProveedorID: req.ProveedorID, Productos: dedupe(req.Productos), Costo: cost}
	err = s.repo.Assign(ctx, a)
	if errors.Is(err, shared.ErrNotFound) {
		return Assignment{}, errUnknownRef
	}
	if err != nil {
		return Assignment{}, err
	}
	return a, nil
}

// ProductsOf lists the products provided by a supplier.
func (s *Service) ProductsOf(ctx context.Context, supplierID int64) ([]SupplierProduct, error) {
	if supplierID <= 0 {
		return nil, errInvalidID
	}
	return s.repo.ProductsOf(ctx, supplierID)
}

// Unassigned lists products without any supplier.
func (s *Service) Unassigned(ctx context.Context) ([]SupplierProduct, error) {
	return s.repo.Unassigned(ctx)
}

// Catalog lists every product with its supplier.
func (s *Service) Catalog(ctx context.Context) ([]CatalogProduct, error) {
	return s.repo.Catalog(ctx)
}

// UpdateCost changes the cost of an existing assignment.
func (s *Service) UpdateCost(ctx context.Context, supplierID, productID int64, req CostRequest) error {
	if supplierID <= 0 || productID <= 0 {
		return errInvalidID
	}
	cost, err := parseCost(req.Costo, true)
	if err != nil {
		return err
	}
	err = s.repo.UpdateCost(ctx, supplierID, productID, cost)
	if errors.Is(err, shared.ErrNotFound) {
		return errNotAssigned
	}
	return err
}

func dedupe(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
