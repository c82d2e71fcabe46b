package product

import (
	"context"
	"strings"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/furkanakkulak/TTN-E-COMMERCE-CASE/internal/cache"
	"github.com/furkanakkulak/TTN-E-COMMERCE-CASE/internal/domain/apperr"
)

// Input carries every writable product field.
type Input struct {
	Title         string
	Description   string
	Price         decimal.Decimal
	StockQuantity int
	Origin        string
	RoastLevel    string
	FlavorNotes   []string
	CategoryID    int64
}

// Patch carries the fields of a partial update; nil means unchanged.
type Patch struct {
	Title         *string
	Description   *string
	Price         *decimal.Decimal
	StockQuantity *int
	Origin        *string
	RoastLevel    *string
	FlavorNotes   *[]string
	CategoryID    *int64
}

func (p Patch) apply(to *Product) {
	if p.Title != nil {
		to.Title = *p.Title
	}
	if p.Description != nil {
		to.Description = *p.Description
	}
	if p.Price != nil {
		to.Price = *p.Price
	}
	if p.StockQuantity != nil {
		to.StockQuantity = *p.StockQuantity
	}
	if p.Origin != nil {
		to.Origin = *p.Origin
	}
	if p.RoastLevel != nil {
		to.RoastLevel = *p.RoastLevel
	}
	if p.FlavorNotes != nil {
		to.FlavorNotes = *p.FlavorNotes
	}
	if p.CategoryID != nil {
		to.CategoryID = *p.CategoryID
	}
}

// Service manages the catalog and keeps its cache entries coherent.
type Service struct {
	products   Repository
	categories CategoryRepository
	cache      cache.Cache
}

// NewService creates a catalog Service.
func NewService(products Repository, categories CategoryRepository, c cache.Cache) *Service {
	return &Service{products: products, categories: categories, cache: c}
}

// List returns the whole catalog.
func (s *Service) List(ctx context.Context) (List, error) {
	l, err := cache.Fetch(ctx, s.cache, cache.ProductsKey, func(ctx context.Context) (*List, error) {
		products, err := s.products.List(ctx)
		if err != nil {
			return nil, errors.Wrap(err, "list products")
		}
		l := List(products)
		return &l, nil
	})
	if err != nil {
		return nil, err
	}
	return *l, nil
}

// Get returns one product.
func (s *Service) Get(ctx context.Context, id int64) (*Product, error) {
	return cache.Fetch(ctx, s.cache, cache.ProductKey(id), func(ctx context.Context) (*Product, error) {
		return s.products.GetByID(ctx, id)
	})
}

// Create adds a product to the catalog.
func (s *Service) Create(ctx context.Context, in Input) (*Product, error) {
	p := &Product{
		Title:         in.Title,
		Description:   in.Description,
		Price:         in.Price,
		StockQuantity: in.StockQuantity,
		Origin:        in.Origin,
		RoastLevel:    in.RoastLevel,
		FlavorNotes:   in.FlavorNotes,
		CategoryID:    in.CategoryID,
	}
	if err := s.validate(ctx, p); err != nil {
		return nil, err
	}
	if err := s.products.Create(ctx, p); err != nil {
		return nil, errors.Wrap(err, "create product")
	}
	s.cache.Invalidate(ctx, cache.ProductsKey)

	return s.reload(ctx, p.ID)
}

// Replace overwrites every writable field of product id.
func (s *Service) Replace(ctx context.Context, id int64, in Input) (*Product, error) {
	title, desc, origin, roast := in.Title, in.Description, in.Origin, in.RoastLevel
	notes := in.FlavorNotes
	return s.Patch(ctx, id, Patch{
		Title:         &title,
		Description:   &desc,
		Price:         &in.Price,
		StockQuantity: &in.StockQuantity,
		Origin:        &origin,
		RoastLevel:    &roast,
		FlavorNotes:   &notes,
		CategoryID:    &in.CategoryID,
	})
}

// Patch updates the fields set in patch.
func (s *Service) Patch(ctx context.Context, id int64, patch Patch) (*Product, error) {
	p, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	title := p.Title
	patch.apply(p)
	if err := s.validate(ctx, p); err != nil {
		return nil, err
	}
	if err := s.products.Update(ctx, p); err != nil {
		return nil, errors.Wrapf(err, "update product %d", id)
	}
	keys := cache.ProductKeys(id)
	if p.Title != title {
		// Order projections embed product titles.
		keys = append(keys, cache.OrdersKey)
	}
	s.cache.Invalidate(ctx, keys...)

	return s.reload(ctx, id)
}

// Delete removes a product.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.products.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrInUse) {
			return err
		}
		return errors.Wrapf(err, "delete product %d", id)
	}
	s.cache.Invalidate(ctx, cache.ProductKeys(id)...)
	return nil
}

// ListCategories returns all categories.
func (s *Service) ListCategories(ctx context.Context) (Categories, error) {
	cs, err := cache.Fetch(ctx, s.cache, cache.CategoriesKey, func(ctx context.Context) (*Categories, error) {
		list, err := s.categories.List(ctx)
		if err != nil {
			return nil, errors.Wrap(err, "list categories")
		}
		cs := Categories(list)
		return &cs, nil
	})
	if err != nil {
		return nil, err
	}
	return *cs, nil
}

// CreateCategory adds a category.
func (s *Service) CreateCategory(ctx context.Context, title string) (*Category, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, apperr.Invalidf("title is required")
	}
	c := &Category{Title: title}
	if err := s.categories.Create(ctx, c); err != nil {
		return nil, errors.Wrap(err, "create category")
	}
	s.cache.Invalidate(ctx, cache.CategoriesKey)
	return c, nil
}

// DeleteCategory removes a category together with its products.
func (s *Service) DeleteCategory(ctx context.Context, id int64) error {
	ids, err := s.products.ListIDsByCategory(ctx, id)
	if err != nil {
		return errors.Wrapf(err, "list products of category %d", id)
	}
	if err := s.categories.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrCategoryNotFound) || errors.Is(err, ErrInUse) {
			return err
		}
		return errors.Wrapf(err, "delete category %d", id)
	}
	s.cache.Invalidate(ctx, append(cache.ProductKeys(ids...), cache.CategoriesKey)...)
	return nil
}

func (s *Service) validate(ctx context.Context, p *Product) error {
	p.Title = strings.TrimSpace(p.Title)
	p.Origin = strings.TrimSpace(p.Origin)
	switch {
	case p.Title == "":
		return apperr.Invalidf("title is required")
	case p.Origin == "":
		return apperr.Invalidf("origin is required")
	case p.Price.IsNegative():
		return apperr.Invalidf("price must not be negative")
	case p.StockQuantity < 0:
		return apperr.Invalidf("stockQuantity must not be negative")
	}
	if _, err := s.categories.GetByID(ctx, p.CategoryID); err != nil {
		if errors.Is(err, ErrCategoryNotFound) {
			return apperr.Invalidf("category %d does not exist", p.CategoryID)
		}
		return errors.Wrap(err, "check category")
	}
	return nil
}

func (s *Service) reload(ctx context.Context, id int64) (*Product, error) {
	p, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, errors.Wrapf(err, "reload product %d", id)
	}
	return p, nil
}
