// Package money encodes monetary decimals as JSON numbers.
package money

import (
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"
)

// Encode writes d as a JSON number with exactly two decimal places.
func Encode(e *jx.Encoder, d decimal.Decimal) {
	e.Num(jx.Num(d.StringFixed(2)))
}

// Decode reads a JSON number or numeric string into a decimal.
func Decode(d *jx.Decoder) (decimal.Decimal, error) {
	switch d.Next() {
	case jx.String:
		s, err := d.Str()
		if err != nil {
			return decimal.Decimal{}, err
		}
		v, err := decimal.NewFromString(s)
		if err != nil {
			return decimal.Decimal{}, errors.Wrapf(err, "parse amount %q", s)
		}
		return v, nil
	case jx.Number:
		n, err := d.Num()
		if err != nil {
			return decimal.Decimal{}, err
		}
		v, err := decimal.NewFromString(string(n))
		if err != nil {
			return decimal.Decimal{}, errors.Wrapf(err, "parse amount %q", string(n))
		}
		return v, nil
	default:
		return decimal.Decimal{}, errors.Errorf("amount: unexpected %s", d.Next())
	}
}
