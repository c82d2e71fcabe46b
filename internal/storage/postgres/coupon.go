package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/furkanakkulak/TTN-E-COMMERCE-CASE/internal/domain/coupon"
)

const (
	listCouponsSQL      = `SELECT id, code, is_active FROM coupons ORDER BY id`
	getCouponByIDSQL    = `SELECT id, code, is_active FROM coupons WHERE id = $1`
	getCouponByCodeSQL  = `SELECT id, code, is_active FROM coupons WHERE code = $1`
	createCouponSQL     = `INSERT INTO coupons (code, is_active) VALUES ($1, $2) RETURNING id`
	updateCouponSQL     = `UPDATE coupons SET code = $2, is_active = $3, updated_at = now() WHERE id = $1`
	upsertCouponCodeSQL = `INSERT INTO coupons (code, is_active) VALUES ($1, $2)
		ON CONFLICT (code) DO UPDATE SET is_active = EXCLUDED.is_active, updated_at = now()
		RETURNING id`
)

var _ coupon.Repository = (*CouponRepository)(nil)

// CouponRepository implements coupon.Repository backed by PostgreSQL.
type CouponRepository struct {
	pool *pgxpool.Pool
}

// NewCouponRepository returns a CouponRepository that uses the given pool.
func NewCouponRepository(pool *pgxpool.Pool) *CouponRepository {
	return &CouponRepository{pool: pool}
}

// List returns all coupons ordered by ID.
func (r *CouponRepository) List(ctx context.Context) ([]coupon.Coupon, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, listCouponsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing coupons: %w", err)
	}
	return pgx.CollectRows(rows, pgx.RowToStructByPos[coupon.Coupon])
}

// GetByID returns a single coupon.
func (r *CouponRepository) GetByID(ctx context.Context, id int64) (*coupon.Coupon, error) {
	return r.one(ctx, getCouponByIDSQL, id)
}

// FindByCode looks up a coupon by its exact code, active or not.
func (r *CouponRepository) FindByCode(ctx context.Context, code string) (*coupon.Coupon, error) {
	return r.one(ctx, getCouponByCodeSQL, code)
}

func (r *CouponRepository) one(ctx context.Context, sql string, arg any) (*coupon.Coupon, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, sql, arg)
	if err != nil {
		return nil, fmt.Errorf("getting coupon %v: %w", arg, err)
	}
	c, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByPos[coupon.Coupon])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, coupon.ErrNotFound
		}
		return nil, fmt.Errorf("getting coupon %v: %w", arg, err)
	}
	return &c, nil
}

// Create inserts c and sets its ID.
func (r *CouponRepository) Create(ctx context.Context, c *coupon.Coupon) error {
	err := conn(ctx, r.pool).QueryRow(ctx, createCouponSQL, c.Code, c.IsActive).Scan(&c.ID)
	if err != nil {
		if pgCode(err) == uniqueViolation {
			return coupon.ErrDuplicateCode
		}
		return fmt.Errorf("creating coupon %q: %w", c.Code, err)
	}
	return nil
}

// Update overwrites code and active flag of c.
func (r *CouponRepository) Update(ctx context.Context, c *coupon.Coupon) error {
	tag, err := conn(ctx, r.pool).Exec(ctx, updateCouponSQL, c.ID, c.Code, c.IsActive)
	if err != nil {
		if pgCode(err) == uniqueViolation {
			return coupon.ErrDuplicateCode
		}
		return fmt.Errorf("updating coupon %d: %w", c.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return coupon.ErrNotFound
	}
	return nil
}

// UpsertCodes inserts codes that do not exist yet and sets is_active on all
// of them. It runs as a single batch and returns the ids in code order.
func (r *CouponRepository) UpsertCodes(ctx context.Context, codes []string, active bool) ([]int64, error) {
	ids := make([]int64, len(codes))
	batch := &pgx.Batch{}
	for i, code := range codes {
		batch.Queue(upsertCouponCodeSQL, code, active).QueryRow(func(row pgx.Row) error {
			return row.Scan(&ids[i])
		})
	}
	if err := conn(ctx, r.pool).SendBatch(ctx, batch).Close(); err != nil {
		return nil, fmt.Errorf("upserting %d coupon codes: %w", len(codes), err)
	}
	return ids, nil
}
