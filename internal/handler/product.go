package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/furkanakkulak/TTN-E-COMMERCE-CASE/internal/domain/apperr"
	"github.com/furkanakkulak/TTN-E-COMMERCE-CASE/internal/domain/money"
	"github.com/furkanakkulak/TTN-E-COMMERCE-CASE/internal/domain/product"
)

// productBody is the request body of product writes. Absent fields stay nil.
type productBody struct {
	product.Patch
}

func (b *productBody) Decode(d *jx.Decoder) error {
	return d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "title":
			b.Title, err = decodeStr(d)
		case "description":
			b.Description, err = decodeStr(d)
		case "origin":
			b.Origin, err = decodeStr(d)
		case "roastLevel":
			b.RoastLevel, err = decodeStr(d)
		case "price":
			var v decimal.Decimal
			if v, err = money.Decode(d); err == nil {
				b.Price = &v
			}
		case "stockQuantity":
			var n int
			if n, err = d.Int(); err == nil {
				b.StockQuantity = &n
			}
		case "categoryId":
			var id int64
			if id, err = d.Int64(); err == nil {
				b.CategoryID = &id
			}
		case "flavorNotes":
			notes := []string{}
			err = d.Arr(func(d *jx.Decoder) error {
				s, err := d.Str()
				notes = append(notes, s)
				return err
			})
			b.FlavorNotes = &notes
		default:
			err = d.Skip()
		}
		return errors.Wrapf(err, "%q", key)
	})
}

// input converts a full-body request, rejecting absent required fields.
func (b *productBody) input() (product.Input, error) {
	switch {
	case b.Title == nil:
		return product.Input{}, apperr.Invalidf(`"title" is required`)
	case b.Price == nil:
		return product.Input{}, apperr.Invalidf(`"price" is required`)
	case b.StockQuantity == nil:
		return product.Input{}, apperr.Invalidf(`"stockQuantity" is required`)
	case b.Origin == nil:
		return product.Input{}, apperr.Invalidf(`"origin" is required`)
	case b.CategoryID == nil:
		return product.Input{}, apperr.Invalidf(`"categoryId" is required`)
	}
	in := product.Input{
		Title:         *b.Title,
		Price:         *b.Price,
		StockQuantity: *b.StockQuantity,
		Origin:        *b.Origin,
		CategoryID:    *b.CategoryID,
	}
	if b.Description != nil {
		in.Description = *b.Description
	}
	if b.RoastLevel != nil {
		in.RoastLevel = *b.RoastLevel
	}
	if b.FlavorNotes != nil {
		in.FlavorNotes = *b.FlavorNotes
	}
	return in, nil
}

// ListProducts handles GET /products.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.List(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, &products)
}

// GetProduct handles GET /products/{productId}.
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "productId")
	if err != nil {
		fail(w, r, err)
		return
	}
	p, err := h.products.Get(r.Context(), id)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// CreateProduct handles POST /products.
func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var body productBody
	if err := decodeBody(r, body.Decode); err != nil {
		fail(w, r, err)
		return
	}
	in, err := body.input()
	if err != nil {
		fail(w, r, err)
		return
	}
	p, err := h.products.Create(r.Context(), in)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// ReplaceProduct handles PUT /products/{productId}.
func (h *Handler) ReplaceProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "productId")
	if err != nil {
		fail(w, r, err)
		return
	}
	var body productBody
	if err := decodeBody(r, body.Decode); err != nil {
		fail(w, r, err)
		return
	}
	in, err := body.input()
	if err != nil {
		fail(w, r, err)
		return
	}
	p, err := h.products.Replace(r.Context(), id, in)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// PatchProduct handles PATCH /products/{productId}.
func (h *Handler) PatchProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "productId")
	if err != nil {
		fail(w, r, err)
		return
	}
	var body productBody
	if err := decodeBody(r, body.Decode); err != nil {
		fail(w, r, err)
		return
	}
	p, err := h.products.Patch(r.Context(), id, body.Patch)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// DeleteProduct handles DELETE /products/{productId}.
func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "productId")
	if err != nil {
		fail(w, r, err)
		return
	}
	if err := h.products.Delete(r.Context(), id); err != nil {
		fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// categoryBody is the request body of POST /categories.
type categoryBody struct {
	Title string
}

func (b *categoryBody) Decode(d *jx.Decoder) error {
	return d.Obj(func(d *jx.Decoder, key string) error {
		if key != "title" {
			return d.Skip()
		}
		s, err := d.Str()
		b.Title = s
		return errors.Wrap(err, `"title"`)
	})
}

// ListCategories handles GET /categories.
func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	cs, err := h.products.ListCategories(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, &cs)
}

// CreateCategory handles POST /categories.
func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var body categoryBody
	if err := decodeBody(r, body.Decode); err != nil {
		fail(w, r, err)
		return
	}
	c, err := h.products.CreateCategory(r.Context(), body.Title)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

// DeleteCategory handles DELETE /categories/{categoryId}.
func (h *Handler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "categoryId")
	if err != nil {
		fail(w, r, err)
		return
	}
	if err := h.products.DeleteCategory(r.Context(), id); err != nil {
		fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func decodeStr(d *jx.Decoder) (*string, error) {
	s, err := d.Str()
	if err != nil {
		return nil, err
	}
	return &s, nil
}
