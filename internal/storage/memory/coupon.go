package memory

import (
	"cmp"
	"context"
	"slices"

	"github.com/furkanakkulak/TTN-E-COMMERCE-CASE/internal/domain/coupon"
)

var _ coupon.Repository = (*Coupons)(nil)

// Coupons implements coupon.Repository.
type Coupons struct {
	db *DB
}

// List implements coupon.Repository.
func (r *Coupons) List(ctx context.Context) ([]coupon.Coupon, error) {
	defer r.db.lock(ctx)()

	out := make([]coupon.Coupon, 0, len(r.db.t.coupons))
	for _, c := range r.db.t.coupons {
		out = append(out, c)
	}
	slices.SortFunc(out, func(a, b coupon.Coupon) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

// GetByID implements coupon.Repository.
func (r *Coupons) GetByID(ctx context.Context, id int64) (*coupon.Coupon, error) {
	defer r.db.lock(ctx)()

	c, ok := r.db.t.coupons[id]
	if !ok {
		return nil, coupon.ErrNotFound
	}
	return &c, nil
}

// FindByCode implements coupon.Repository.
func (r *Coupons) FindByCode(ctx context.Context, code string) (*coupon.Coupon, error) {
	defer r.db.lock(ctx)()

	for _, c := range r.db.t.coupons {
		if c.Code == code {
			return &c, nil
		}
	}
	return nil, coupon.ErrNotFound
}

// Create implements coupon.Repository. A preset ID is kept.
func (r *Coupons) Create(ctx context.Context, c *coupon.Coupon) error {
	defer r.db.lock(ctx)()

	if r.taken(c.Code, 0) {
		return coupon.ErrDuplicateCode
	}
	c.ID = nextID(&r.db.t.couponSeq, c.ID)
	r.db.t.coupons[c.ID] = *c
	return nil
}

// Update implements coupon.Repository.
func (r *Coupons) Update(ctx context.Context, c *coupon.Coupon) error {
	defer r.db.lock(ctx)()

	if _, ok := r.db.t.coupons[c.ID]; !ok {
		return coupon.ErrNotFound
	}
	if r.taken(c.Code, c.ID) {
		return coupon.ErrDuplicateCode
	}
	r.db.t.coupons[c.ID] = *c
	return nil
}

func (r *Coupons) taken(code string, except int64) bool {
	for id, c := range r.db.t.coupons {
		if id != except && c.Code == code {
			return true
		}
	}
	return false
}
