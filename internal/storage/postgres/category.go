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
	listCategoriesSQL    = `SELECT id, title FROM categories ORDER BY id`
	getCategoryByIDSQL   = `SELECT id, title FROM categories WHERE id = $1`
	createCategorySQL    = `INSERT INTO categories (title) VALUES ($1) RETURNING id`
	deleteCategorySQL    = `DELETE FROM categories WHERE id = $1`
	upsertCategorySQL    = `INSERT INTO categories (id, title) VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET title = EXCLUDED.title, updated_at = now()`
)

var _ product.CategoryRepository = (*CategoryRepository)(nil)

// CategoryRepository implements product.CategoryRepository backed by PostgreSQL.
type CategoryRepository struct {
	pool *pgxpool.Pool
}

// NewCategoryRepository returns a CategoryRepository that uses the given pool.
func NewCategoryRepository(pool *pgxpool.Pool) *CategoryRepository {
	return &CategoryRepository{pool: pool}
}

// List returns all categories ordered by ID.
func (r *CategoryRepository) List(ctx context.Context) ([]product.Category, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, listCategoriesSQL)
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	return pgx.CollectRows(rows, pgx.RowToStructByPos[product.Category])
}

// GetByID returns a single category.
func (r *CategoryRepository) GetByID(ctx context.Context, id int64) (*product.Category, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, getCategoryByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting category %d: %w", id, err)
	}
	c, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByPos[product.Category])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, product.ErrCategoryNotFound
		}
		return nil, fmt.Errorf("getting category %d: %w", id, err)
	}
	return &c, nil
}

// Create inserts c and sets its ID.
func (r *CategoryRepository) Create(ctx context.Context, c *product.Category) error {
	if err := conn(ctx, r.pool).QueryRow(ctx, createCategorySQL, c.Title).Scan(&c.ID); err != nil {
		return fmt.Errorf("creating category %q: %w", c.Title, err)
	}
	return nil
}

// Upsert inserts c with its preset ID or renames the existing row.
func (r *CategoryRepository) Upsert(ctx context.Context, c *product.Category) error {
	if _, err := conn(ctx, r.pool).Exec(ctx, upsertCategorySQL, c.ID, c.Title); err != nil {
		return fmt.Errorf("upserting category %d: %w", c.ID, err)
	}
	return nil
}

// Delete removes a category; its products go with it through ON DELETE
// CASCADE unless an order references one of them.
func (r *CategoryRepository) Delete(ctx context.Context, id int64) error {
	tag, err := conn(ctx, r.pool).Exec(ctx, deleteCategorySQL, id)
	if err != nil {
		if pgCode(err) == foreignKeyViolation {
			return product.ErrInUse
		}
		return fmt.Errorf("deleting category %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return product.ErrCategoryNotFound
	}
	return nil
}
