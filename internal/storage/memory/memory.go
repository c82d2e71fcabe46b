// Package memory is an in-process implementation of every repository, used
// by tests and by the memory storage driver.
//
// All repositories share one DB. WithinTx holds the DB lock for the whole
// callback and restores a snapshot when it fails, so a transaction is
// serializable and atomic. Repository calls made with a transactional
// context skip their own locking.
package memory

import (
	"context"
	"maps"
	"sync"

	"github.com/furkanakkulak/TTN-E-COMMERCE-CASE/internal/domain/coupon"
	"github.com/furkanakkulak/TTN-E-COMMERCE-CASE/internal/domain/order"
	"github.com/furkanakkulak/TTN-E-COMMERCE-CASE/internal/domain/product"
)

type txKey struct{}

type tables struct {
	categories map[int64]product.Category
	products   map[int64]product.Product
	coupons    map[int64]coupon.Coupon
	orders     map[int64]order.Order
	items      map[int64]order.CartItem

	categorySeq int64
	productSeq  int64
	couponSeq   int64
	orderSeq    int64
	itemSeq     int64
}

func (t *tables) clone() tables {
	c := *t
	c.categories = maps.Clone(t.categories)
	c.products = maps.Clone(t.products)
	c.coupons = maps.Clone(t.coupons)
	c.orders = maps.Clone(t.orders)
	c.items = maps.Clone(t.items)
	return c
}

// DB holds all tables.
type DB struct {
	mu sync.Mutex
	t  tables
}

var _ order.Transactor = (*DB)(nil)

// New returns an empty DB.
func New() *DB {
	return &DB{t: tables{
		categories: map[int64]product.Category{},
		products:   map[int64]product.Product{},
		coupons:    map[int64]coupon.Coupon{},
		orders:     map[int64]order.Order{},
		items:      map[int64]order.CartItem{},
	}}
}

// WithinTx implements order.Transactor. Nested calls join the outer
// transaction.
func (db *DB) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if db.inTx(ctx) {
		return fn(ctx)
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	snapshot := db.t.clone()
	if err := fn(context.WithValue(ctx, txKey{}, db)); err != nil {
		db.t = snapshot
		return err
	}
	return nil
}

func (db *DB) inTx(ctx context.Context) bool {
	v, _ := ctx.Value(txKey{}).(*DB)
	return v == db
}

// lock takes the DB lock unless ctx already holds it through WithinTx.
func (db *DB) lock(ctx context.Context) func() {
	if db.inTx(ctx) {
		return func() {}
	}
	db.mu.Lock()
	return db.mu.Unlock
}

// Products returns the product repository.
func (db *DB) Products() *Products { return &Products{db: db} }

// Categories returns the category repository.
func (db *DB) Categories() *Categories { return &Categories{db: db} }

// Coupons returns the coupon repository.
func (db *DB) Coupons() *Coupons { return &Coupons{db: db} }

// Orders returns the order repository.
func (db *DB) Orders() *Orders { return &Orders{db: db} }

// nextID returns id when set, otherwise the next value of seq. seq is
// advanced past explicit ids.
func nextID(seq *int64, id int64) int64 {
	if id == 0 {
		*seq++
		return *seq
	}
	if id > *seq {
		*seq = id
	}
	return id
}
