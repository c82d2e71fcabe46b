package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/furkanakkulak/TTN-E-COMMERCE-CASE/internal/domain/order"
)

const (
	orderColumns = `o.id, o.total_amount, o.shipping_fee, o.discount_rate, o.discount_amount,
		o.net_amount, o.coupon_id, COALESCE(c.code, '')`

	listOrdersSQL = `SELECT ` + orderColumns + `
		FROM orders o LEFT JOIN coupons c ON c.id = o.coupon_id ORDER BY o.id`

	getOrderByIDSQL = `SELECT ` + orderColumns + `
		FROM orders o LEFT JOIN coupons c ON c.id = o.coupon_id WHERE o.id = $1`

	itemColumns = `ci.id, ci.order_id, ci.product_id, ci.quantity, p.title`

	listItemsSQL = `SELECT ` + itemColumns + `
		FROM cart_items ci JOIN products p ON p.id = ci.product_id ORDER BY ci.id`

	listOrderItemsSQL = `SELECT ` + itemColumns + `
		FROM cart_items ci JOIN products p ON p.id = ci.product_id
		WHERE ci.order_id = $1 ORDER BY ci.id`

	createOrderSQL = `INSERT INTO orders
		(total_amount, shipping_fee, discount_rate, discount_amount, net_amount, coupon_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`

	updateOrderSQL = `UPDATE orders SET
		total_amount = $2, shipping_fee = $3, discount_rate = $4, discount_amount = $5,
		net_amount = $6, coupon_id = $7, updated_at = now()
		WHERE id = $1`

	deleteOrderSQL = `DELETE FROM orders WHERE id = $1`

	createItemSQL = `INSERT INTO cart_items (order_id, product_id, quantity)
		VALUES ($1, $2, $3) RETURNING id`

	updateItemQuantitySQL = `UPDATE cart_items SET quantity = $2, updated_at = now() WHERE id = $1`

	deleteItemSQL = `DELETE FROM cart_items WHERE id = $1`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// List returns every order with its items, ordered by ID.
func (r *OrderRepository) List(ctx context.Context) ([]order.Order, error) {
	q := conn(ctx, r.pool)

	rows, err := q.Query(ctx, listOrdersSQL)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	orders, err := pgx.CollectRows(rows, scanOrder)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}

	rows, err = q.Query(ctx, listItemsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing cart items: %w", err)
	}
	items, err := pgx.CollectRows(rows, scanItem)
	if err != nil {
		return nil, fmt.Errorf("listing cart items: %w", err)
	}

	byOrder := make(map[int64][]order.CartItem, len(orders))
	for _, it := range items {
		byOrder[it.OrderID] = append(byOrder[it.OrderID], it)
	}
	for i := range orders {
		orders[i].Items = byOrder[orders[i].ID]
	}
	return orders, nil
}

// GetByID returns a single order with its items.
func (r *OrderRepository) GetByID(ctx context.Context, id int64) (*order.Order, error) {
	q := conn(ctx, r.pool)

	rows, err := q.Query(ctx, getOrderByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting order %d: %w", id, err)
	}
	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("getting order %d: %w", id, err)
	}

	rows, err = q.Query(ctx, listOrderItemsSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting items of order %d: %w", id, err)
	}
	if o.Items, err = pgx.CollectRows(rows, scanItem); err != nil {
		return nil, fmt.Errorf("getting items of order %d: %w", id, err)
	}
	return &o, nil
}

// Create inserts the order header and sets its ID. Items are added
// separately with AddItem.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	err := conn(ctx, r.pool).QueryRow(ctx, createOrderSQL,
		o.TotalAmount, o.ShippingFee, o.DiscountRate, o.DiscountAmount, o.NetAmount, o.CouponID,
	).Scan(&o.ID)
	if err != nil {
		return fmt.Errorf("creating order: %w", err)
	}
	return nil
}

// Update overwrites the order header.
func (r *OrderRepository) Update(ctx context.Context, o *order.Order) error {
	tag, err := conn(ctx, r.pool).Exec(ctx, updateOrderSQL,
		o.ID, o.TotalAmount, o.ShippingFee, o.DiscountRate, o.DiscountAmount, o.NetAmount, o.CouponID,
	)
	if err != nil {
		return fmt.Errorf("updating order %d: %w", o.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return order.ErrNotFound
	}
	return nil
}

// Delete removes an order; its items go with it through ON DELETE CASCADE.
func (r *OrderRepository) Delete(ctx context.Context, id int64) error {
	tag, err := conn(ctx, r.pool).Exec(ctx, deleteOrderSQL, id)
	if err != nil {
		return fmt.Errorf("deleting order %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return order.ErrNotFound
	}
	return nil
}

// AddItem inserts item and sets its ID.
func (r *OrderRepository) AddItem(ctx context.Context, item *order.CartItem) error {
	err := conn(ctx, r.pool).QueryRow(ctx, createItemSQL,
		item.OrderID, item.ProductID, item.Quantity,
	).Scan(&item.ID)
	if err != nil {
		if pgCode(err) == foreignKeyViolation {
			return order.ErrNotFound
		}
		return fmt.Errorf("adding product %d to order %d: %w", item.ProductID, item.OrderID, err)
	}
	return nil
}

// UpdateItemQuantity sets the quantity of a cart item.
func (r *OrderRepository) UpdateItemQuantity(ctx context.Context, itemID int64, quantity int) error {
	tag, err := conn(ctx, r.pool).Exec(ctx, updateItemQuantitySQL, itemID, quantity)
	if err != nil {
		return fmt.Errorf("updating cart item %d: %w", itemID, err)
	}
	if tag.RowsAffected() == 0 {
		return order.ErrNotFound
	}
	return nil
}

// DeleteItem removes a cart item.
func (r *OrderRepository) DeleteItem(ctx context.Context, itemID int64) error {
	tag, err := conn(ctx, r.pool).Exec(ctx, deleteItemSQL, itemID)
	if err != nil {
		return fmt.Errorf("deleting cart item %d: %w", itemID, err)
	}
	if tag.RowsAffected() == 0 {
		return order.ErrNotFound
	}
	return nil
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var o order.Order
	err := row.Scan(
		&o.ID, &o.TotalAmount, &o.ShippingFee, &o.DiscountRate, &o.DiscountAmount,
		&o.NetAmount, &o.CouponID, &o.CouponCode,
	)
	return o, err
}

func scanItem(row pgx.CollectableRow) (order.CartItem, error) {
	var it order.CartItem
	err := row.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Quantity, &it.Title)
	return it, err
}
