package products

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/almacen-pos/almacen/internal/shared"
)

const (
	defaultListLimit = 60
	maxListLimit     = 200
)

// LookupCache caches barcode lookups; Bump invalidates them after writes.
type LookupCache interface {
	FetchJSON(ctx context.Context, parts []string, dest any, loader func(context.Context) (any, error)) error
	Bump(ctx context.Context) error
}

// Service implements catalog use cases.
type Service struct {
	repo   Repository
	cache  LookupCache
	logger *slog.Logger
}

// NewService constructs a Service. cache may be nil.
func NewService(repo Repository, cache LookupCache, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, cache: cache, logger: logger}
}

// List returns a page of products ordered by name.
func (s *Service) List(ctx context.Context, search string, page, limit int) ([]Product, error) {
	p := shared.NewPagination(page, limit, defaultListLimit, maxListLimit)
	return s.repo.List(ctx, ListFilter{Search: strings.TrimSpace(search), Limit: p.Limit, Offset: p.Offset()})
}

// Get returns a product by id.
func (s *Service) Get(ctx context.Context, id int64) (Product, error) {
	if id <= 0 {
		return Product{}, errInvalidID
	}
	p, err := s.repo.Get(ctx, id)
	if errors.Is(err, shared.ErrNotFound) {
		return Product{}, errNotFound
	}
	return p, err
}

// ByBarcode finds a product by its exact barcode, then by its digits.
func (s *Service) ByBarcode(ctx context.Context, code string) (Product, error) {
	bc := SanitizeBarcode(code)
	if bc.Trimmed == "" {
		return Product{}, errNotFound
	}
	load := func(ctx context.Context) (any, error) {
		p, err := s.repo.FindByBarcode(ctx, bc.Trimmed)
		if errors.Is(err, shared.ErrNotFound) && bc.DigitsOnly != "" {
			p, err = s.repo.FindByBarcodeDigits(ctx, bc.DigitsOnly)
		}
		return p, err
	}

	var (
		product Product
		err     error
	)
	if s.cache != nil {
		err = s.cache.FetchJSON(ctx, []string{"barcode", bc.Trimmed}, &product, load)
	} else {
		var v any
		v, err = load(ctx)
		if err == nil {
			product = v.(Product)
		}
	}
	if errors.Is(err, shared.ErrNotFound) {
		return Product{}, errNotFound
	}
	return product, err
}

// Create validates and stores a new product.
func (s *Service) Create(ctx context.Context, req CreateRequest) (Product, error) {
	if err := validateCreate(&req); err != nil {
		return Product{}, err
	}
	price, err := parsePrice(req.Price)
	if err != nil {
		return Product{}, err
	}
	stock, err := parseStock(req.Stock)
	if err != nil {
		return Product{}, err
	}
	if err := validateImage(req.ImageDataURL, false); err != nil {
		return Product{}, err
	}

	p := Product{Name: req.Name, Price: price, Stock: DefaultStock, Barcode: req.Barcode, Description: req.Description}
	if stock != nil {
		p.Stock = *stock
	}
	if req.ImageDataURL != "" {
		p.Image = &req.ImageDataURL
	}
	created, err := s.repo.Create(ctx, p)
	if errors.Is(err, shared.ErrDuplicate) {
		return Product{}, errDuplicate
	}
	if err != nil {
		return Product{}, err
	}
	s.invalidate(ctx)
	return created, nil
}

// Update applies a partial update to a product.
func (s *Service) Update(ctx context.Context, id int64, req UpdateRequest) (Product, error) {
	if id <= 0 {
		return Product{}, errInvalidID
	}
	if err := validateUpdate(&req); err != nil {
		return Product{}, err
	}
	price, err := parsePrice(req.Price)
	if err != nil {
		return Product{}, err
	}
	stock, err := parseStock(req.Stock)
	if err != nil {
		return Product{}, err
	}

	current, err := s.Get(ctx, id)
	if err != nil {
		return Product{}, err
	}
	if req.Name != nil {
		current.Name = *req.Name
	}
	if req.Barcode != nil {
		current.Barcode = *req.Barcode
	}
	if price != nil {
		current.Price = price
	}
	if stock != nil {
		current.Stock = *stock
	}
	if req.Description != nil {
		current.Description = req.Description
	}

	updated, err := s.repo.Update(ctx, current)
	switch {
	case errors.Is(err, shared.ErrDuplicate):
		return Product{}, errDuplicate
	case errors.Is(err, shared.ErrNotFound):
		return Product{}, errNotFound
	case err != nil:
		return Product{}, err
	}
	s.invalidate(ctx)
	return updated, nil
}

// ReplaceImage stores a new data URI image for the product.
func (s *Service) ReplaceImage(ctx context.Context, id int64, image string) error {
	if id <= 0 {
		return errInvalidID
	}
	if err := validateImage(image, true); err != nil {
		return err
	}
	err := s.repo.UpdateImage(ctx, id, image)
	if errors.Is(err, shared.ErrNotFound) {
		return errNotFound
	}
	if err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

func (s *Service) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Bump(ctx); err != nil {
		s.logger.WarnContext(ctx, "product cache bump", slog.Any("error", err))
	}
}
