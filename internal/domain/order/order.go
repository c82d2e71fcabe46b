package order

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/furkanakkulak/TTN-E-COMMERCE-CASE/internal/domain/pricing"
)

// PromotionalProductID is the product granted for free to qualifying
// couponed orders. It can never be ordered directly.
const PromotionalProductID int64 = 1

// Order is the persisted aggregate: derived totals plus its cart items.
type Order struct {
	ID             int64
	TotalAmount    decimal.Decimal
	ShippingFee    decimal.Decimal
	DiscountRate   int
	DiscountAmount decimal.Decimal
	NetAmount      decimal.Decimal
	// CouponID is immutable once set.
	CouponID *int64
	// CouponCode is filled on reads when CouponID is set.
	CouponCode string
	Items      []CartItem
}

// CartItem is one product line of an order.
type CartItem struct {
	ID        int64
	OrderID   int64
	ProductID int64
	Quantity  int
	// Title is the product title, filled on reads.
	Title string
}

// Line is a requested product and quantity.
type Line struct {
	ProductID int64
	Quantity  int
}

// CreateRequest holds the input for placing an order.
type CreateRequest struct {
	Cart       []Line
	CouponCode string
}

// UpdateRequest holds the input for replacing an order's cart.
type UpdateRequest struct {
	Cart       []Line
	CouponCode string
}

// applyQuote stores the rounded totals of q on o.
func (o *Order) applyQuote(q pricing.Quote) {
	q = q.Rounded()
	o.TotalAmount = q.Subtotal
	o.ShippingFee = q.ShippingFee
	o.DiscountRate = q.DiscountRate
	o.DiscountAmount = q.Discount
	o.NetAmount = q.Net
}

func (o *Order) promotionalItem() (CartItem, bool) {
	for _, it := range o.Items {
		if it.ProductID == PromotionalProductID {
			return it, true
		}
	}
	return CartItem{}, false
}

// Repository defines persistence for orders and their items. Implementations
// honor a transaction carried in ctx.
type Repository interface {
	List(ctx context.Context) ([]Order, error)
	GetByID(ctx context.Context, id int64) (*Order, error)
	Create(ctx context.Context, o *Order) error
	Update(ctx context.Context, o *Order) error
	Delete(ctx context.Context, id int64) error
	AddItem(ctx context.Context, item *CartItem) error
	UpdateItemQuantity(ctx context.Context, itemID int64, quantity int) error
	DeleteItem(ctx context.Context, itemID int64) error
}

// Transactor runs fn in a single unit of work. Repositories called with the
// ctx passed to fn take part in it; a non-nil error from fn rolls it back.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}
