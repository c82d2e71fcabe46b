package order

import (
	"fmt"

	"github.com/furkanakkulak/TTN-E-COMMERCE-CASE/internal/domain/apperr"
)

var (
	// ErrNotFound is returned by repositories when an order does not exist.
	ErrNotFound = apperr.New(apperr.NotFound, "order not found")
	// ErrEmptyCart is returned when a cart has no lines.
	ErrEmptyCart = apperr.New(apperr.Validation, "cart must contain at least one item")
)

// NotFoundError indicates the addressed order does not exist.
type NotFoundError struct {
	OrderID int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("order %d not found", e.OrderID)
}

func (e *NotFoundError) Kind() apperr.Kind { return apperr.NotFound }

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// PromotionalItemError indicates a cart line referenced the promotional product.
type PromotionalItemError struct {
	ProductID int64
}

func (e *PromotionalItemError) Error() string {
	return fmt.Sprintf("adding product %d manually is not allowed", e.ProductID)
}

func (e *PromotionalItemError) Kind() apperr.Kind { return apperr.BusinessRule }

// ProductNotFoundError indicates a cart line references a missing product.
type ProductNotFoundError struct {
	ProductID int64
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product with ID %d not found", e.ProductID)
}

func (e *ProductNotFoundError) Kind() apperr.Kind { return apperr.BusinessRule }

// InsufficientStockError indicates a product cannot cover a requested quantity.
type InsufficientStockError struct {
	ProductID int64
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %d", e.ProductID)
}

func (e *InsufficientStockError) Kind() apperr.Kind { return apperr.BusinessRule }

// CouponImmutableError indicates an attempt to swap the coupon of an order.
type CouponImmutableError struct {
	OrderID int64
}

func (e *CouponImmutableError) Error() string {
	return "coupon code cannot be changed"
}

func (e *CouponImmutableError) Kind() apperr.Kind { return apperr.BusinessRule }

// InvalidQuantityError indicates a line item has a non-positive quantity.
type InvalidQuantityError struct {
	ProductID int64
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("quantity must be greater than 0 for product %d", e.ProductID)
}

func (e *InvalidQuantityError) Kind() apperr.Kind { return apperr.Validation }
