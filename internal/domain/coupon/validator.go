package coupon

import (
	"context"

	"github.com/go-faster/errors"
)

// Validator resolves a code to an applicable coupon.
type Validator interface {
	// Validate returns the active coupon for code, or *InvalidCouponError.
	Validate(ctx context.Context, code string) (*Coupon, error)
}

// Result is the outcome of checking a code for a client.
type Result struct {
	Valid   bool
	Message string
	Coupon  *Coupon
}

var _ Validator = (*RepoValidator)(nil)

// RepoValidator implements Validator against a Repository. Codes with an
// invalid format never reach the repository.
type RepoValidator struct {
	repo Repository
}

// NewRepoValidator creates a RepoValidator backed by the given Repository.
func NewRepoValidator(repo Repository) *RepoValidator {
	return &RepoValidator{repo: repo}
}

// Check classifies code. Only infrastructure failures are returned as errors.
func (v *RepoValidator) Check(ctx context.Context, code string) (*Result, error) {
	if !ValidFormat(code) {
		return &Result{Message: MsgInvalidFormat}, nil
	}
	c, err := v.repo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return &Result{Message: MsgUnknown}, nil
		}
		return nil, errors.Wrap(err, "lookup coupon")
	}
	if !c.IsActive {
		return &Result{Message: MsgInactive, Coupon: c}, nil
	}
	return &Result{Valid: true, Message: MsgValid, Coupon: c}, nil
}

// Validate implements Validator.
func (v *RepoValidator) Validate(ctx context.Context, code string) (*Coupon, error) {
	res, err := v.Check(ctx, code)
	if err != nil {
		return nil, err
	}
	if !res.Valid {
		return nil, &InvalidCouponError{Code: code, Message: res.Message}
	}
	return res.Coupon, nil
}
