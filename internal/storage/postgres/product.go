package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/furkanakkulak/TTN-E-COMMERCE-CASE/internal/domain/product"
)

const (
	productColumns = `p.id, p.title, COALESCE(p.description, ''), p.price, p.stock_quantity, p.origin,
		COALESCE(p.roast_level, ''), p.flavor_notes, p.category_id, c.title`

	listProductsSQL = `SELECT ` + productColumns + `
		FROM products p JOIN categories c ON c.id = p.category_id ORDER BY p.id`

	getProductByIDSQL = `SELECT ` + productColumns + `
		FROM products p JOIN categories c ON c.id = p.category_id WHERE p.id = $1`

	getProductsByIDsSQL = `SELECT ` + productColumns + `
		FROM products p JOIN categories c ON c.id = p.category_id WHERE p.id = ANY($1) ORDER BY p.id`

	listProductIDsByCategorySQL = `SELECT id FROM products WHERE category_id = $1 ORDER BY id`

	createProductSQL = `INSERT INTO products
		(title, description, price, stock_quantity, origin, roast_level, flavor_notes, category_id)
		VALUES ($1, NULLIF($2, ''), $3, $4, $5, NULLIF($6, ''), $7, $8)
		RETURNING id`

	upsertProductSQL = `INSERT INTO products
		(id, title, description, price, stock_quantity, origin, roast_level, flavor_notes, category_id)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, NULLIF($7, ''), $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			price = EXCLUDED.price,
			stock_quantity = EXCLUDED.stock_quantity,
			origin = EXCLUDED.origin,
			roast_level = EXCLUDED.roast_level,
			flavor_notes = EXCLUDED.flavor_notes,
			category_id = EXCLUDED.category_id,
			updated_at = now()`

	updateProductSQL = `UPDATE products SET
		title = $2, description = NULLIF($3, ''), price = $4, stock_quantity = $5, origin = $6,
		roast_level = NULLIF($7, ''), flavor_notes = $8, category_id = $9, updated_at = now()
		WHERE id = $1`

	deleteProductSQL = `DELETE FROM products WHERE id = $1`

	// adjustStockSQL applies a signed delta only when the result stays
	// non-negative, so concurrent decrements cannot oversell.
	adjustStockSQL = `UPDATE products SET stock_quantity = stock_quantity + $2, updated_at = now()
		WHERE id = $1 AND stock_quantity + $2 >= 0
		RETURNING stock_quantity`

	productStockSQL = `SELECT stock_quantity FROM products WHERE id = $1`
)

var _ product.Repository = (*ProductRepository)(nil)

// ProductRepository implements product.Repository backed by PostgreSQL.
type ProductRepository struct {
	pool *pgxpool.Pool
}

// NewProductRepository returns a ProductRepository that uses the given pool.
func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// List returns all products ordered by ID.
func (r *ProductRepository) List(ctx context.Context) ([]product.Product, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, listProductsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	return pgx.CollectRows(rows, scanProduct)
}

// GetByID returns a single product by its identifier.
func (r *ProductRepository) GetByID(ctx context.Context, id int64) (*product.Product, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, getProductByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting product %d: %w", id, err)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, product.ErrNotFound
		}
		return nil, fmt.Errorf("getting product %d: %w", id, err)
	}
	return &p, nil
}

// GetByIDs returns products matching any of the given IDs.
func (r *ProductRepository) GetByIDs(ctx context.Context, ids []int64) ([]product.Product, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, getProductsByIDsSQL, ids)
	if err != nil {
		return nil, fmt.Errorf("getting products by ids: %w", err)
	}
	return pgx.CollectRows(rows, scanProduct)
}

// ListIDsByCategory returns the IDs of every product in a category.
func (r *ProductRepository) ListIDsByCategory(ctx context.Context, categoryID int64) ([]int64, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, listProductIDsByCategorySQL, categoryID)
	if err != nil {
		return nil, fmt.Errorf("listing products of category %d: %w", categoryID, err)
	}
	return pgx.CollectRows(rows, pgx.RowTo[int64])
}

// Create inserts p and sets its ID.
func (r *ProductRepository) Create(ctx context.Context, p *product.Product) error {
	err := conn(ctx, r.pool).QueryRow(ctx, createProductSQL,
		p.Title, p.Description, p.Price, p.StockQuantity, p.Origin, p.RoastLevel,
		notes(p.FlavorNotes), p.CategoryID,
	).Scan(&p.ID)
	if err != nil {
		return fmt.Errorf("creating product %q: %w", p.Title, err)
	}
	return nil
}

// Upsert inserts p with its preset ID or overwrites the existing row.
func (r *ProductRepository) Upsert(ctx context.Context, p *product.Product) error {
	_, err := conn(ctx, r.pool).Exec(ctx, upsertProductSQL,
		p.ID, p.Title, p.Description, p.Price, p.StockQuantity, p.Origin, p.RoastLevel,
		notes(p.FlavorNotes), p.CategoryID,
	)
	if err != nil {
		return fmt.Errorf("upserting product %d: %w", p.ID, err)
	}
	return nil
}

// Update overwrites every writable column of p.
func (r *ProductRepository) Update(ctx context.Context, p *product.Product) error {
	tag, err := conn(ctx, r.pool).Exec(ctx, updateProductSQL,
		p.ID, p.Title, p.Description, p.Price, p.StockQuantity, p.Origin, p.RoastLevel,
		notes(p.FlavorNotes), p.CategoryID,
	)
	if err != nil {
		return fmt.Errorf("updating product %d: %w", p.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return product.ErrNotFound
	}
	return nil
}

// Delete removes a product that no order references.
func (r *ProductRepository) Delete(ctx context.Context, id int64) error {
	tag, err := conn(ctx, r.pool).Exec(ctx, deleteProductSQL, id)
	if err != nil {
		if pgCode(err) == foreignKeyViolation {
			return product.ErrInUse
		}
		return fmt.Errorf("deleting product %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return product.ErrNotFound
	}
	return nil
}

// AdjustStock adds delta to the stock of product id.
func (r *ProductRepository) AdjustStock(ctx context.Context, id int64, delta int) (int, error) {
	q := conn(ctx, r.pool)

	var stock int
	err := q.QueryRow(ctx, adjustStockSQL, id, delta).Scan(&stock)
	if err == nil {
		return stock, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("adjusting stock of product %d: %w", id, err)
	}

	err = q.QueryRow(ctx, productStockSQL, id).Scan(&stock)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return 0, product.ErrNotFound
	case err != nil:
		return 0, fmt.Errorf("checking product %d: %w", id, err)
	}
	return stock, product.ErrInsufficientStock
}

func scanProduct(row pgx.CollectableRow) (product.Product, error) {
	var p product.Product
	err := row.Scan(
		&p.ID, &p.Title, &p.Description, &p.Price, &p.StockQuantity, &p.Origin,
		&p.RoastLevel, &p.FlavorNotes, &p.CategoryID, &p.CategoryTitle,
	)
	return p, err
}

// notes maps nil to an empty array so the NOT NULL column accepts it.
func notes(n []string) []string {
	if n == nil {
		return []string{}
	}
	return n
}
