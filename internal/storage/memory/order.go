package memory

import (
	"cmp"
	"context"
	"slices"

	"github.com/furkanakkulak/TTN-E-COMMERCE-CASE/internal/domain/order"
)

var _ order.Repository = (*Orders)(nil)

// Orders implements order.Repository.
type Orders struct {
	db *DB
}

func (r *Orders) view(o order.Order) order.Order {
	if o.CouponID != nil {
		id := *o.CouponID
		o.CouponID = &id
		o.CouponCode = r.db.t.coupons[id].Code
	}
	o.Items = nil
	for _, it := range r.db.t.items {
		if it.OrderID == o.ID {
			it.Title = r.db.t.products[it.ProductID].Title
			o.Items = append(o.Items, it)
		}
	}
	slices.SortFunc(o.Items, func(a, b order.CartItem) int { return cmp.Compare(a.ID, b.ID) })
	return o
}

// List implements order.Repository.
func (r *Orders) List(ctx context.Context) ([]order.Order, error) {
	defer r.db.lock(ctx)()

	out := make([]order.Order, 0, len(r.db.t.orders))
	for _, o := range r.db.t.orders {
		out = append(out, r.view(o))
	}
	slices.SortFunc(out, func(a, b order.Order) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

// GetByID implements order.Repository.
func (r *Orders) GetByID(ctx context.Context, id int64) (*order.Order, error) {
	defer r.db.lock(ctx)()

	o, ok := r.db.t.orders[id]
	if !ok {
		return nil, order.ErrNotFound
	}
	o = r.view(o)
	return &o, nil
}

// Create implements order.Repository. Only the header is stored.
func (r *Orders) Create(ctx context.Context, o *order.Order) error {
	defer r.db.lock(ctx)()

	o.ID = nextID(&r.db.t.orderSeq, 0)
	r.db.t.orders[o.ID] = header(o)
	return nil
}

// Update implements order.Repository. Only the header is stored.
func (r *Orders) Update(ctx context.Context, o *order.Order) error {
	defer r.db.lock(ctx)()

	if _, ok := r.db.t.orders[o.ID]; !ok {
		return order.ErrNotFound
	}
	r.db.t.orders[o.ID] = header(o)
	return nil
}

// Delete implements order.Repository. Remaining items go with the order.
func (r *Orders) Delete(ctx context.Context, id int64) error {
	defer r.db.lock(ctx)()

	if _, ok := r.db.t.orders[id]; !ok {
		return order.ErrNotFound
	}
	for itemID, it := range r.db.t.items {
		if it.OrderID == id {
			delete(r.db.t.items, itemID)
		}
	}
	delete(r.db.t.orders, id)
	return nil
}

// AddItem implements order.Repository.
func (r *Orders) AddItem(ctx context.Context, item *order.CartItem) error {
	defer r.db.lock(ctx)()

	if _, ok := r.db.t.orders[item.OrderID]; !ok {
		return order.ErrNotFound
	}
	item.ID = nextID(&r.db.t.itemSeq, 0)
	stored := *item
	stored.Title = ""
	r.db.t.items[item.ID] = stored
	return nil
}

// UpdateItemQuantity implements order.Repository.
func (r *Orders) UpdateItemQuantity(ctx context.Context, itemID int64, quantity int) error {
	defer r.db.lock(ctx)()

	it, ok := r.db.t.items[itemID]
	if !ok {
		return order.ErrNotFound
	}
	it.Quantity = quantity
	r.db.t.items[itemID] = it
	return nil
}

// DeleteItem implements order.Repository.
func (r *Orders) DeleteItem(ctx context.Context, itemID int64) error {
	defer r.db.lock(ctx)()

	if _, ok := r.db.t.items[itemID]; !ok {
		return order.ErrNotFound
	}
	delete(r.db.t.items, itemID)
	return nil
}

func header(o *order.Order) order.Order {
	h := *o
	h.Items = nil
	h.CouponCode = ""
	if o.CouponID != nil {
		id := *o.CouponID
		h.CouponID = &id
	}
	return h
}
