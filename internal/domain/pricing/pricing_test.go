package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestTieredDiscount(t *testing.T) {
	tests := []struct {
		subtotal string
		want     string
	}{
		{subtotal: "999.99", want: "0"},
		{subtotal: "1000", want: "100"},
		{subtotal: "1499.99", want: "149.999"},
		{subtotal: "1500", want: "225"},
		{subtotal: "2000", want: "400"},
		{subtotal: "2999.99", want: "599.998"},
		{subtotal: "3000", want: "750"},
		{subtotal: "3500", want: "875"},
	}

	for _, tt := range tests {
		t.Run(tt.subtotal, func(t *testing.T) {
			got := TieredDiscount(d(tt.subtotal))
			assert.True(t, d(tt.want).Equal(got), "want %s, got %s", tt.want, got)
		})
	}
}

func TestShippingFee(t *testing.T) {
	tests := []struct {
		amount string
		want   string
	}{
		{amount: "0", want: "54.99"},
		{amount: "400", want: "54.99"},
		{amount: "499.99", want: "54.99"},
		{amount: "500", want: "0"},
		{amount: "600", want: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			got := ShippingFee(d(tt.amount))
			assert.True(t, d(tt.want).Equal(got), "want %s, got %s", tt.want, got)
		})
	}
}

func TestDiscountRatePercent(t *testing.T) {
	assert.Equal(t, 33, DiscountRatePercent(d("333.33"), d("1000")))
	assert.Equal(t, 25, DiscountRatePercent(d("875"), d("3500")))
	assert.Equal(t, 0, DiscountRatePercent(d("0"), d("250")))
	assert.Equal(t, 0, DiscountRatePercent(d("10"), decimal.Zero))
}

func TestSubtotal(t *testing.T) {
	got := Subtotal([]Line{
		{UnitPrice: d("120.50"), Quantity: 2},
		{UnitPrice: d("9.99"), Quantity: 3},
	})
	assert.True(t, d("270.97").Equal(got), "got %s", got)
	assert.True(t, Subtotal(nil).IsZero())
}

func TestPrice(t *testing.T) {
	t.Run("without coupon", func(t *testing.T) {
		q := Price([]Line{{UnitPrice: d("200"), Quantity: 2}}, false)

		assert.True(t, d("400").Equal(q.Subtotal))
		assert.True(t, q.Discount.IsZero())
		assert.True(t, d("54.99").Equal(q.ShippingFee))
		assert.True(t, d("454.99").Equal(q.Net))
		assert.Zero(t, q.DiscountRate)
		assert.False(t, q.EarnsPromotion())
	})

	t.Run("without coupon large order gets no discount", func(t *testing.T) {
		q := Price([]Line{{UnitPrice: d("1750"), Quantity: 2}}, false)

		assert.True(t, q.Discount.IsZero())
		assert.Zero(t, q.DiscountRate)
		assert.False(t, q.EarnsPromotion())
	})

	t.Run("coupon top tier", func(t *testing.T) {
		q := Price([]Line{{UnitPrice: d("1750"), Quantity: 2}}, true)

		assert.True(t, d("3500").Equal(q.Subtotal))
		assert.True(t, d("875").Equal(q.Discount))
		assert.True(t, q.ShippingFee.IsZero())
		assert.True(t, d("2625").Equal(q.Net))
		assert.Equal(t, 25, q.DiscountRate)
		assert.True(t, q.EarnsPromotion())
	})

	t.Run("shipping recomputed after discount", func(t *testing.T) {
		// 520 is free-shipping on subtotal but no tier applies, so shipping stays free.
		q := Price([]Line{{UnitPrice: d("520"), Quantity: 1}}, true)
		assert.True(t, q.ShippingFee.IsZero())
		assert.True(t, q.Discount.IsZero())
	})

	t.Run("coupon below promotion threshold", func(t *testing.T) {
		q := Price([]Line{{UnitPrice: d("1000"), Quantity: 2}}, true)

		assert.True(t, d("400").Equal(q.Discount))
		assert.Equal(t, 20, q.DiscountRate)
		assert.False(t, q.EarnsPromotion())
	})
}

func TestQuoteRounded(t *testing.T) {
	q := Price([]Line{{UnitPrice: d("1499.99"), Quantity: 1}}, true).Rounded()

	assert.Equal(t, "150.00", q.Discount.StringFixed(2))
	assert.Equal(t, "1349.99", q.Net.StringFixed(2))
	assert.Equal(t, 10, q.DiscountRate)
}
