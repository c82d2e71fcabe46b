package product

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/furkanakkulak/TTN-E-COMMERCE-CASE/internal/domain/apperr"
)

var (
	// ErrNotFound is returned when a requested product does not exist.
	ErrNotFound = apperr.New(apperr.NotFound, "product not found")
	// ErrCategoryNotFound is returned when a requested category does not exist.
	ErrCategoryNotFound = apperr.New(apperr.NotFound, "category not found")
	// ErrInsufficientStock is returned by Repository.AdjustStock when a
	// decrement would take stock below zero.
	ErrInsufficientStock = apperr.New(apperr.BusinessRule, "insufficient stock")
	// ErrInUse is returned when a product (or a category's product) is still
	// referenced by order lines.
	ErrInUse = apperr.New(apperr.BusinessRule, "product is referenced by existing orders")
)

// Product is a catalog item.
type Product struct {
	ID            int64
	Title         string
	Description   string
	Price         decimal.Decimal
	StockQuantity int
	Origin        string
	RoastLevel    string
	FlavorNotes   []string
	CategoryID    int64
	// CategoryTitle is filled on reads.
	CategoryTitle string
}

// Category groups products.
type Category struct {
	ID    int64
	Title string
}

// Repository defines persistence for products. Implementations honor a
// transaction carried in ctx.
type Repository interface {
	List(ctx context.Context) ([]Product, error)
	GetByID(ctx context.Context, id int64) (*Product, error)
	GetByIDs(ctx context.Context, ids []int64) ([]Product, error)
	ListIDsByCategory(ctx context.Context, categoryID int64) ([]int64, error)
	Create(ctx context.Context, p *Product) error
	Update(ctx context.Context, p *Product) error
	Delete(ctx context.Context, id int64) error
	// AdjustStock adds delta to the stock of product id and returns the new
	// level. A negative delta that would leave stock below zero fails with
	// ErrInsufficientStock, changes nothing and returns the current level.
	AdjustStock(ctx context.Context, id int64, delta int) (int, error)
}

// CategoryRepository defines persistence for categories. Deleting a
// category deletes its products.
type CategoryRepository interface {
	List(ctx context.Context) ([]Category, error)
	GetByID(ctx context.Context, id int64) (*Category, error)
	Create(ctx context.Context, c *Category) error
	Delete(ctx context.Context, id int64) error
}
