package coupon

import (
	"context"
	"fmt"
	"regexp"

	"github.com/furkanakkulak/TTN-E-COMMERCE-CASE/internal/domain/apperr"
)

// Validation messages returned to clients.
const (
	MsgInvalidFormat = "Invalid coupon code format"
	MsgUnknown       = "Invalid coupon code."
	MsgInactive      = "Coupon is not active."
	MsgValid         = "Coupon is valid."
)

var (
	// ErrNotFound is returned when a coupon does not exist.
	ErrNotFound = apperr.New(apperr.NotFound, "coupon not found")
	// ErrDuplicateCode is returned when a code is already taken.
	ErrDuplicateCode = apperr.New(apperr.BusinessRule, "coupon code already exists")
)

// formatPattern: a digit, then at least three consecutive 'T's, then a digit.
var formatPattern = regexp.MustCompile(`\d.*T{3,}.*\d`)

// ValidFormat reports whether code is shaped like a coupon code.
func ValidFormat(code string) bool {
	return formatPattern.MatchString(code)
}

// Coupon is a discount voucher.
type Coupon struct {
	ID       int64
	Code     string
	IsActive bool
}

// InvalidCouponError reports why a code cannot be applied.
type InvalidCouponError struct {
	Code    string
	Message string
}

func (e *InvalidCouponError) Error() string {
	return fmt.Sprintf("coupon %q: %s", e.Code, e.Message)
}

// Kind implements apperr.Kinder.
func (e *InvalidCouponError) Kind() apperr.Kind { return apperr.BusinessRule }

// Repository defines persistence for coupons.
type Repository interface {
	List(ctx context.Context) ([]Coupon, error)
	GetByID(ctx context.Context, id int64) (*Coupon, error)
	FindByCode(ctx context.Context, code string) (*Coupon, error)
	Create(ctx context.Context, c *Coupon) error
	Update(ctx context.Context, c *Coupon) error
}
