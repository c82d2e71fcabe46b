package coupon

import (
	"context"
	"strings"

	"github.com/go-faster/errors"

	"github.com/furkanakkulak/TTN-E-COMMERCE-CASE/internal/cache"
	"github.com/furkanakkulak/TTN-E-COMMERCE-CASE/internal/domain/apperr"
)

// Update carries the fields of a coupon update; nil means unchanged.
type Update struct {
	Code     *string
	IsActive *bool
}

// Service manages coupons.
type Service struct {
	repo      Repository
	validator *RepoValidator
	cache     cache.Cache
}

// NewService creates a coupon Service.
func NewService(repo Repository, c cache.Cache) *Service {
	return &Service{repo: repo, validator: NewRepoValidator(repo), cache: c}
}

// Validator exposes the code validator used by order placement.
func (s *Service) Validator() *RepoValidator { return s.validator }

// Check classifies code for a client.
func (s *Service) Check(ctx context.Context, code string) (*Result, error) {
	return s.validator.Check(ctx, strings.TrimSpace(code))
}

// List returns all coupons.
func (s *Service) List(ctx context.Context) (List, error) {
	l, err := cache.Fetch(ctx, s.cache, cache.CouponsKey, func(ctx context.Context) (*List, error) {
		coupons, err := s.repo.List(ctx)
		if err != nil {
			return nil, errors.Wrap(err, "list coupons")
		}
		l := List(coupons)
		return &l, nil
	})
	if err != nil {
		return nil, err
	}
	return *l, nil
}

// Get returns one coupon.
func (s *Service) Get(ctx context.Context, id int64) (*Coupon, error) {
	return cache.Fetch(ctx, s.cache, cache.CouponKey(id), func(ctx context.Context) (*Coupon, error) {
		return s.repo.GetByID(ctx, id)
	})
}

// Create adds a coupon. New coupons are active unless isActive says otherwise.
func (s *Service) Create(ctx context.Context, code string, isActive *bool) (*Coupon, error) {
	c := &Coupon{Code: strings.TrimSpace(code), IsActive: true}
	if isActive != nil {
		c.IsActive = *isActive
	}
	if !ValidFormat(c.Code) {
		return nil, apperr.Invalidf("%s: %q", MsgInvalidFormat, c.Code)
	}
	if err := s.repo.Create(ctx, c); err != nil {
		if errors.Is(err, ErrDuplicateCode) {
			return nil, err
		}
		return nil, errors.Wrap(err, "create coupon")
	}
	s.cache.Invalidate(ctx, cache.CouponsKey)
	return c, nil
}

// Update changes the fields set in u.
func (s *Service) Update(ctx context.Context, id int64, u Update) (*Coupon, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u.Code != nil {
		code := strings.TrimSpace(*u.Code)
		if !ValidFormat(code) {
			return nil, apperr.Invalidf("%s: %q", MsgInvalidFormat, code)
		}
		c.Code = code
	}
	if u.IsActive != nil {
		c.IsActive = *u.IsActive
	}
	if err := s.repo.Update(ctx, c); err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrDuplicateCode) {
			return nil, err
		}
		return nil, errors.Wrapf(err, "update coupon %d", id)
	}
	s.cache.Invalidate(ctx, cache.CouponsKey, cache.CouponKey(id))
	return c, nil
}

// Deactivate marks a coupon inactive. Orders that already carry it keep it.
func (s *Service) Deactivate(ctx context.Context, id int64) (*Coupon, error) {
	inactive := false
	return s.Update(ctx, id, Update{IsActive: &inactive})
}
