package order

import (
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/furkanakkulak/TTN-E-COMMERCE-CASE/internal/domain/money"
)

// SummaryLine is one cart entry of a Summary.
type SummaryLine struct {
	ItemID   int64
	Title    string
	Quantity int
}

// Summary is the client-facing projection of an order.
type Summary struct {
	ID             int64
	TotalAmount    decimal.Decimal
	ShippingFee    decimal.Decimal
	DiscountRate   int
	DiscountAmount decimal.Decimal
	NetAmount      decimal.Decimal
	CouponID       *int64
	Cart           []SummaryLine
}

// Summary projects o. Cart lines follow o.Items.
func (o *Order) Summary() *Summary {
	s := &Summary{
		ID:             o.ID,
		TotalAmount:    o.TotalAmount,
		ShippingFee:    o.ShippingFee,
		DiscountRate:   o.DiscountRate,
		DiscountAmount: o.DiscountAmount,
		NetAmount:      o.NetAmount,
		CouponID:       o.CouponID,
		Cart:           make([]SummaryLine, 0, len(o.Items)),
	}
	for _, it := range o.Items {
		s.Cart = append(s.Cart, SummaryLine{ItemID: it.ProductID, Title: it.Title, Quantity: it.Quantity})
	}
	return s
}

// Encode writes s as JSON.
func (s *Summary) Encode(e *jx.Encoder) {
	e.ObjStart()
	e.FieldStart("id")
	e.Int64(s.ID)
	e.FieldStart("totalAmount")
	money.Encode(e, s.TotalAmount)
	e.FieldStart("shippingFee")
	money.Encode(e, s.ShippingFee)
	e.FieldStart("discountRate")
	e.Int(s.DiscountRate)
	e.FieldStart("discountAmount")
	money.Encode(e, s.DiscountAmount)
	e.FieldStart("netAmount")
	money.Encode(e, s.NetAmount)
	e.FieldStart("couponId")
	if s.CouponID != nil {
		e.Int64(*s.CouponID)
	} else {
		e.Null()
	}
	e.FieldStart("cart")
	e.ArrStart()
	for _, l := range s.Cart {
		e.ObjStart()
		e.FieldStart("itemId")
		e.Int64(l.ItemID)
		e.FieldStart("title")
		e.Str(l.Title)
		e.FieldStart("quantity")
		e.Int(l.Quantity)
		e.ObjEnd()
	}
	e.ArrEnd()
	e.ObjEnd()
}

// Decode reads s from JSON produced by Encode.
func (s *Summary) Decode(d *jx.Decoder) error {
	return d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "id":
			s.ID, err = d.Int64()
		case "totalAmount":
			s.TotalAmount, err = money.Decode(d)
		case "shippingFee":
			s.ShippingFee, err = money.Decode(d)
		case "discountRate":
			s.DiscountRate, err = d.Int()
		case "discountAmount":
			s.DiscountAmount, err = money.Decode(d)
		case "netAmount":
			s.NetAmount, err = money.Decode(d)
		case "couponId":
			if d.Next() == jx.Null {
				s.CouponID = nil
				err = d.Null()
				break
			}
			var id int64
			id, err = d.Int64()
			s.CouponID = &id
		case "cart":
			s.Cart = s.Cart[:0]
			err = d.Arr(func(d *jx.Decoder) error {
				var l SummaryLine
				if err := l.decode(d); err != nil {
					return err
				}
				s.Cart = append(s.Cart, l)
				return nil
			})
		default:
			err = d.Skip()
		}
		return errors.Wrapf(err, "field %q", key)
	})
}

func (l *SummaryLine) decode(d *jx.Decoder) error {
	return d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "itemId":
			l.ItemID, err = d.Int64()
		case "title":
			l.Title, err = d.Str()
		case "quantity":
			l.Quantity, err = d.Int()
		default:
			err = d.Skip()
		}
		return err
	})
}

// Summaries is the collection projection of orders.
type Summaries []Summary

// Encode writes ss as a JSON array.
func (ss *Summaries) Encode(e *jx.Encoder) {
	e.ArrStart()
	for i := range *ss {
		(*ss)[i].Encode(e)
	}
	e.ArrEnd()
}

// Decode reads ss from a JSON array.
func (ss *Summaries) Decode(d *jx.Decoder) error {
	*ss = (*ss)[:0]
	return d.Arr(func(d *jx.Decoder) error {
		var s Summary
		if err := s.Decode(d); err != nil {
			return err
		}
		*ss = append(*ss, s)
		return nil
	})
}
