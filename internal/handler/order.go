package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/furkanakkulak/TTN-E-COMMERCE-CASE/internal/domain/apperr"
	"github.com/furkanakkulak/TTN-E-COMMERCE-CASE/internal/domain/order"
)

// orderBody is the request body of POST and PUT /orders.
type orderBody struct {
	Cart       []order.Line
	CouponCode string
}

func (b *orderBody) Decode(d *jx.Decoder) error {
	var hasCart bool
	err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "cart":
			hasCart = true
			return d.Arr(func(d *jx.Decoder) error {
				l, err := decodeLine(d)
				if err != nil {
					return err
				}
				b.Cart = append(b.Cart, l)
				return nil
			})
		case "couponCode":
			if d.Next() == jx.Null {
				return d.Null()
			}
			s, err := d.Str()
			b.CouponCode = s
			return errors.Wrap(err, "couponCode")
		default:
			return d.Skip()
		}
	})
	if err != nil {
		return err
	}
	if !hasCart {
		return apperr.Invalidf(`"cart" is required`)
	}
	if len(b.Cart) == 0 {
		return apperr.Invalidf(`"cart" must contain at least 1 items`)
	}
	return nil
}

// decodeLine reads {itemId, quantity}. productId is accepted as an alias of
// itemId.
func decodeLine(d *jx.Decoder) (order.Line, error) {
	var (
		l             order.Line
		hasID, hasQty bool
	)
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "itemId", "productId":
			hasID = true
			l.ProductID, err = d.Int64()
		case "quantity":
			hasQty = true
			l.Quantity, err = d.Int()
		default:
			err = d.Skip()
		}
		return errors.Wrapf(err, "cart item %q", key)
	})
	switch {
	case err != nil:
		return l, err
	case !hasID:
		return l, apperr.Invalidf(`"itemId" is required`)
	case !hasQty:
		return l, apperr.Invalidf(`"quantity" is required`)
	case l.Quantity < 1:
		return l, apperr.Invalidf(`"quantity" must be greater than or equal to 1`)
	}
	return l, nil
}

// ListOrders handles GET /orders.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.List(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, &orders)
}

// GetOrder handles GET /orders/{orderId}.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "orderId")
	if err != nil {
		fail(w, r, err)
		return
	}
	o, err := h.orders.Get(r.Context(), id)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

// CreateOrder handles POST /orders. Every rejected order is a 400.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var body orderBody
	if err := decodeBody(r, body.Decode); err != nil {
		failAs(w, r, err, http.StatusBadRequest)
		return
	}
	o, err := h.orders.Create(r.Context(), order.CreateRequest{
		Cart:       body.Cart,
		CouponCode: body.CouponCode,
	})
	if err != nil {
		failAs(w, r, err, http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusCreated, o)
}

// UpdateOrder handles PUT /orders/{orderId}.
func (h *Handler) UpdateOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "orderId")
	if err != nil {
		fail(w, r, err)
		return
	}
	var body orderBody
	if err := decodeBody(r, body.Decode); err != nil {
		fail(w, r, err)
		return
	}
	o, err := h.orders.Update(r.Context(), id, order.UpdateRequest{
		Cart:       body.Cart,
		CouponCode: body.CouponCode,
	})
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

// DeleteOrder handles DELETE /orders/{orderId}.
func (h *Handler) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "orderId")
	if err != nil {
		fail(w, r, err)
		return
	}
	if err := h.orders.Delete(r.Context(), id); err != nil {
		fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
