// Package pricing derives order totals from priced lines.
//
// All functions are pure and work on unrounded decimals; callers round with
// Quote.Rounded only when values leave the domain.
package pricing

import "github.com/shopspring/decimal"

var (
	// FreeShippingThreshold is the post-discount amount from which shipping is free.
	FreeShippingThreshold = decimal.NewFromInt(500)
	// FlatShippingFee is charged below FreeShippingThreshold.
	FlatShippingFee = decimal.RequireFromString("54.99")
	// PromotionThreshold is the subtotal from which a couponed order earns the
	// promotional item.
	PromotionThreshold = decimal.NewFromInt(3000)
)

var hundred = decimal.NewFromInt(100)

// tier is a subtotal floor and the discount rate it unlocks.
type tier struct {
	floor decimal.Decimal
	rate  decimal.Decimal
}

// tiers is ordered from the highest floor down; the first match wins.
var tiers = []tier{
	{floor: decimal.NewFromInt(3000), rate: decimal.RequireFromString("0.25")},
	{floor: decimal.NewFromInt(2000), rate: decimal.RequireFromString("0.20")},
	{floor: decimal.NewFromInt(1500), rate: decimal.RequireFromString("0.15")},
	{floor: decimal.NewFromInt(1000), rate: decimal.RequireFromString("0.10")},
}

// Line is a unit price and the quantity bought at it.
type Line struct {
	UnitPrice decimal.Decimal
	Quantity  int
}

// Subtotal returns the sum of unit price times quantity over all lines.
func Subtotal(lines []Line) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return total
}

// TierRate returns the discount rate unlocked by subtotal, or zero.
func TierRate(subtotal decimal.Decimal) decimal.Decimal {
	for _, t := range tiers {
		if subtotal.GreaterThanOrEqual(t.floor) {
			return t.rate
		}
	}
	return decimal.Zero
}

// TieredDiscount returns subtotal multiplied by the highest tier it reaches.
func TieredDiscount(subtotal decimal.Decimal) decimal.Decimal {
	return subtotal.Mul(TierRate(subtotal))
}

// ShippingFee returns the fee for an amount measured after discount.
func ShippingFee(amount decimal.Decimal) decimal.Decimal {
	if amount.GreaterThanOrEqual(FreeShippingThreshold) {
		return decimal.Zero
	}
	return FlatShippingFee
}

// NetAmount returns subtotal - discount + shipping.
func NetAmount(subtotal, discount, shipping decimal.Decimal) decimal.Decimal {
	return subtotal.Sub(discount).Add(shipping)
}

// DiscountRatePercent returns floor(100 * discount / subtotal). A zero
// subtotal yields zero.
func DiscountRatePercent(discount, subtotal decimal.Decimal) int {
	if !subtotal.IsPositive() {
		return 0
	}
	return int(discount.Mul(hundred).Div(subtotal).Floor().IntPart())
}

// Quote is the full price derivation of a cart.
type Quote struct {
	Subtotal      decimal.Decimal
	Discount      decimal.Decimal
	ShippingFee   decimal.Decimal
	Net           decimal.Decimal
	DiscountRate  int
	CouponApplied bool
}

// Price derives a Quote for lines. Without a coupon no discount is granted
// and shipping is computed on the subtotal; with one, the tiered discount is
// taken and shipping is recomputed on the discounted amount.
func Price(lines []Line, couponApplied bool) Quote {
	subtotal := Subtotal(lines)
	q := Quote{
		Subtotal:      subtotal,
		Discount:      decimal.Zero,
		ShippingFee:   ShippingFee(subtotal),
		CouponApplied: couponApplied,
	}
	if couponApplied {
		q.Discount = TieredDiscount(subtotal)
		q.ShippingFee = ShippingFee(subtotal.Sub(q.Discount))
		q.DiscountRate = DiscountRatePercent(q.Discount, subtotal)
	}
	q.Net = NetAmount(q.Subtotal, q.Discount, q.ShippingFee)
	return q
}

// EarnsPromotion reports whether a couponed order of this quote qualifies
// for the promotional item.
func (q Quote) EarnsPromotion() bool {
	return q.CouponApplied && q.Subtotal.GreaterThanOrEqual(PromotionThreshold)
}

// Rounded returns q with every monetary amount rounded to two decimal places.
// DiscountRate is left as derived from the unrounded values.
func (q Quote) Rounded() Quote {
	q.Subtotal = q.Subtotal.Round(2)
	q.Discount = q.Discount.Round(2)
	q.ShippingFee = q.ShippingFee.Round(2)
	q.Net = q.Net.Round(2)
	return q
}
