package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/furkanakkulak/TTN-E-COMMERCE-CASE/internal/domain/apperr"
	"github.com/furkanakkulak/TTN-E-COMMERCE-CASE/internal/domain/coupon"
)

// couponBody is the request body of coupon writes.
type couponBody struct {
	coupon.Update
}

func (b *couponBody) Decode(d *jx.Decoder) error {
	return d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "code":
			b.Code, err = decodeStr(d)
		case "isActive":
			if d.Next() == jx.Null {
				return d.Null()
			}
			var v bool
			if v, err = d.Bool(); err == nil {
				b.IsActive = &v
			}
		default:
			err = d.Skip()
		}
		return errors.Wrapf(err, "%q", key)
	})
}

// ListCoupons handles GET /coupons.
func (h *Handler) ListCoupons(w http.ResponseWriter, r *http.Request) {
	cs, err := h.coupons.List(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, &cs)
}

// GetCoupon handles GET /coupons/{couponId}.
func (h *Handler) GetCoupon(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "couponId")
	if err != nil {
		fail(w, r, err)
		return
	}
	c, err := h.coupons.Get(r.Context(), id)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// CreateCoupon handles POST /coupons.
func (h *Handler) CreateCoupon(w http.ResponseWriter, r *http.Request) {
	var body couponBody
	if err := decodeBody(r, body.Decode); err != nil {
		fail(w, r, err)
		return
	}
	if body.Code == nil {
		fail(w, r, apperr.Invalidf(`"code" is required`))
		return
	}
	c, err := h.coupons.Create(r.Context(), *body.Code, body.IsActive)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

// UpdateCoupon handles PUT /coupons/{couponId}.
func (h *Handler) UpdateCoupon(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "couponId")
	if err != nil {
		fail(w, r, err)
		return
	}
	var body couponBody
	if err := decodeBody(r, body.Decode); err != nil {
		fail(w, r, err)
		return
	}
	c, err := h.coupons.Update(r.Context(), id, body.Update)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// DeactivateCoupon handles DELETE /coupons/{couponId}. Coupons are never
// removed, only switched off.
func (h *Handler) DeactivateCoupon(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "couponId")
	if err != nil {
		fail(w, r, err)
		return
	}
	c, err := h.coupons.Deactivate(r.Context(), id)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// ValidateCoupon handles POST /coupons/validate/{code}.
func (h *Handler) ValidateCoupon(w http.ResponseWriter, r *http.Request) {
	res, err := h.coupons.Check(r.Context(), r.PathValue("code"))
	if err != nil {
		fail(w, r, err)
		return
	}
	if !res.Valid {
		writeError(w, http.StatusBadRequest, res.Message)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
