package memory

import (
	"cmp"
	"context"
	"slices"

	"github.com/furkanakkulak/TTN-E-COMMERCE-CASE/internal/domain/product"
)

var (
	_ product.Repository         = (*Products)(nil)
	_ product.CategoryRepository = (*Categories)(nil)
)

// Products implements product.Repository.
type Products struct {
	db *DB
}

func (r *Products) view(p product.Product) product.Product {
	p.FlavorNotes = slices.Clone(p.FlavorNotes)
	p.CategoryTitle = r.db.t.categories[p.CategoryID].Title
	return p
}

// List implements product.Repository.
func (r *Products) List(ctx context.Context) ([]product.Product, error) {
	defer r.db.lock(ctx)()

	out := make([]product.Product, 0, len(r.db.t.products))
	for _, p := range r.db.t.products {
		out = append(out, r.view(p))
	}
	slices.SortFunc(out, func(a, b product.Product) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

// GetByID implements product.Repository.
func (r *Products) GetByID(ctx context.Context, id int64) (*product.Product, error) {
	defer r.db.lock(ctx)()

	p, ok := r.db.t.products[id]
	if !ok {
		return nil, product.ErrNotFound
	}
	p = r.view(p)
	return &p, nil
}

// GetByIDs implements product.Repository.
func (r *Products) GetByIDs(ctx context.Context, ids []int64) ([]product.Product, error) {
	defer r.db.lock(ctx)()

	out := make([]product.Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := r.db.t.products[id]; ok {
			out = append(out, r.view(p))
		}
	}
	return out, nil
}

// ListIDsByCategory implements product.Repository.
func (r *Products) ListIDsByCategory(ctx context.Context, categoryID int64) ([]int64, error) {
	defer r.db.lock(ctx)()

	var ids []int64
	for id, p := range r.db.t.products {
		if p.CategoryID == categoryID {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids, nil
}

// Create implements product.Repository. A preset ID is kept.
func (r *Products) Create(ctx context.Context, p *product.Product) error {
	defer r.db.lock(ctx)()

	p.ID = nextID(&r.db.t.productSeq, p.ID)
	stored := *p
	stored.FlavorNotes = slices.Clone(p.FlavorNotes)
	stored.CategoryTitle = ""
	r.db.t.products[p.ID] = stored
	return nil
}

// Update implements product.Repository.
func (r *Products) Update(ctx context.Context, p *product.Product) error {
	defer r.db.lock(ctx)()

	if _, ok := r.db.t.products[p.ID]; !ok {
		return product.ErrNotFound
	}
	stored := *p
	stored.FlavorNotes = slices.Clone(p.FlavorNotes)
	stored.CategoryTitle = ""
	r.db.t.products[p.ID] = stored
	return nil
}

// Delete implements product.Repository.
func (r *Products) Delete(ctx context.Context, id int64) error {
	defer r.db.lock(ctx)()

	if _, ok := r.db.t.products[id]; !ok {
		return product.ErrNotFound
	}
	if r.db.referenced(id) {
		return product.ErrInUse
	}
	delete(r.db.t.products, id)
	return nil
}

// AdjustStock implements product.Repository.
func (r *Products) AdjustStock(ctx context.Context, id int64, delta int) (int, error) {
	defer r.db.lock(ctx)()

	p, ok := r.db.t.products[id]
	if !ok {
		return 0, product.ErrNotFound
	}
	if p.StockQuantity+delta < 0 {
		return p.StockQuantity, product.ErrInsufficientStock
	}
	p.StockQuantity += delta
	r.db.t.products[id] = p
	return p.StockQuantity, nil
}

// referenced reports whether any cart item points at product id.
func (db *DB) referenced(id int64) bool {
	for _, it := range db.t.items {
		if it.ProductID == id {
			return true
		}
	}
	return false
}

// Categories implements product.CategoryRepository.
type Categories struct {
	db *DB
}

// List implements product.CategoryRepository.
func (r *Categories) List(ctx context.Context) ([]product.Category, error) {
	defer r.db.lock(ctx)()

	out := make([]product.Category, 0, len(r.db.t.categories))
	for _, c := range r.db.t.categories {
		out = append(out, c)
	}
	slices.SortFunc(out, func(a, b product.Category) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

// GetByID implements product.CategoryRepository.
func (r *Categories) GetByID(ctx context.Context, id int64) (*product.Category, error) {
	defer r.db.lock(ctx)()

	c, ok := r.db.t.categories[id]
	if !ok {
		return nil, product.ErrCategoryNotFound
	}
	return &c, nil
}

// Create implements product.CategoryRepository. A preset ID is kept.
func (r *Categories) Create(ctx context.Context, c *product.Category) error {
	defer r.db.lock(ctx)()

	c.ID = nextID(&r.db.t.categorySeq, c.ID)
	r.db.t.categories[c.ID] = *c
	return nil
}

// Delete implements product.CategoryRepository. Products of the category
// are removed with it unless one of them is referenced by an order.
func (r *Categories) Delete(ctx context.Context, id int64) error {
	defer r.db.lock(ctx)()

	if _, ok := r.db.t.categories[id]; !ok {
		return product.ErrCategoryNotFound
	}
	var doomed []int64
	for pid, p := range r.db.t.products {
		if p.CategoryID != id {
			continue
		}
		if r.db.referenced(pid) {
			return product.ErrInUse
		}
		doomed = append(doomed, pid)
	}
	for _, pid := range doomed {
		delete(r.db.t.products, pid)
	}
	delete(r.db.t.categories, id)
	return nil
}
