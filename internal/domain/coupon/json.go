package coupon

import (
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
)

// Encode writes c as JSON.
func (c *Coupon) Encode(e *jx.Encoder) {
	e.ObjStart()
	e.FieldStart("id")
	e.Int64(c.ID)
	e.FieldStart("code")
	e.Str(c.Code)
	e.FieldStart("isActive")
	e.Bool(c.IsActive)
	e.ObjEnd()
}

// Decode reads c from JSON.
func (c *Coupon) Decode(d *jx.Decoder) error {
	return d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "id":
			c.ID, err = d.Int64()
		case "code":
			c.Code, err = d.Str()
		case "isActive":
			c.IsActive, err = d.Bool()
		default:
			err = d.Skip()
		}
		return errors.Wrapf(err, "field %q", key)
	})
}

// List is the collection projection of coupons.
type List []Coupon

// Encode writes l as a JSON array.
func (l *List) Encode(e *jx.Encoder) {
	e.ArrStart()
	for i := range *l {
		(*l)[i].Encode(e)
	}
	e.ArrEnd()
}

// Decode reads l from a JSON array.
func (l *List) Decode(d *jx.Decoder) error {
	*l = (*l)[:0]
	return d.Arr(func(d *jx.Decoder) error {
		var c Coupon
		if err := c.Decode(d); err != nil {
			return err
		}
		*l = append(*l, c)
		return nil
	})
}

// Encode writes r as JSON.
func (r *Result) Encode(e *jx.Encoder) {
	e.ObjStart()
	e.FieldStart("isValid")
	e.Bool(r.Valid)
	e.FieldStart("message")
	e.Str(r.Message)
	if r.Coupon != nil {
		e.FieldStart("coupon")
		r.Coupon.Encode(e)
	}
	e.ObjEnd()
}
