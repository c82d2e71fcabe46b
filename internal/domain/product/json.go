package product

import (
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/furkanakkulak/TTN-E-COMMERCE-CASE/internal/domain/money"
)

// Encode writes p as JSON. Optional fields are omitted when empty.
func (p *Product) Encode(e *jx.Encoder) {
	e.ObjStart()
	e.FieldStart("id")
	e.Int64(p.ID)
	e.FieldStart("title")
	e.Str(p.Title)
	if p.Description != "" {
		e.FieldStart("description")
		e.Str(p.Description)
	}
	e.FieldStart("price")
	money.Encode(e, p.Price)
	e.FieldStart("stockQuantity")
	e.Int(p.StockQuantity)
	e.FieldStart("origin")
	e.Str(p.Origin)
	if p.RoastLevel != "" {
		e.FieldStart("roastLevel")
		e.Str(p.RoastLevel)
	}
	e.FieldStart("flavorNotes")
	e.ArrStart()
	for _, n := range p.FlavorNotes {
		e.Str(n)
	}
	e.ArrEnd()
	e.FieldStart("categoryId")
	e.Int64(p.CategoryID)
	if p.CategoryTitle != "" {
		e.FieldStart("categoryTitle")
		e.Str(p.CategoryTitle)
	}
	e.ObjEnd()
}

// Decode reads p from JSON produced by Encode.
func (p *Product) Decode(d *jx.Decoder) error {
	return d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "id":
			p.ID, err = d.Int64()
		case "title":
			p.Title, err = d.Str()
		case "description":
			p.Description, err = d.Str()
		case "price":
			p.Price, err = money.Decode(d)
		case "stockQuantity":
			p.StockQuantity, err = d.Int()
		case "origin":
			p.Origin, err = d.Str()
		case "roastLevel":
			p.RoastLevel, err = d.Str()
		case "flavorNotes":
			p.FlavorNotes, err = decodeStrings(d)
		case "categoryId":
			p.CategoryID, err = d.Int64()
		case "categoryTitle":
			p.CategoryTitle, err = d.Str()
		default:
			err = d.Skip()
		}
		return errors.Wrapf(err, "field %q", key)
	})
}

// List is the collection projection of products.
type List []Product

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
		var p Product
		if err := p.Decode(d); err != nil {
			return err
		}
		*l = append(*l, p)
		return nil
	})
}

// Encode writes c as JSON.
func (c *Category) Encode(e *jx.Encoder) {
	e.ObjStart()
	e.FieldStart("id")
	e.Int64(c.ID)
	e.FieldStart("title")
	e.Str(c.Title)
	e.ObjEnd()
}

// Decode reads c from JSON.
func (c *Category) Decode(d *jx.Decoder) error {
	return d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "id":
			c.ID, err = d.Int64()
		case "title":
			c.Title, err = d.Str()
		default:
			err = d.Skip()
		}
		return errors.Wrapf(err, "field %q", key)
	})
}

// Categories is the collection projection of categories.
type Categories []Category

// Encode writes cs as a JSON array.
func (cs *Categories) Encode(e *jx.Encoder) {
	e.ArrStart()
	for i := range *cs {
		(*cs)[i].Encode(e)
	}
	e.ArrEnd()
}

// Decode reads cs from a JSON array.
func (cs *Categories) Decode(d *jx.Decoder) error {
	*cs = (*cs)[:0]
	return d.Arr(func(d *jx.Decoder) error {
		var c Category
		if err := c.Decode(d); err != nil {
			return err
		}
		*cs = append(*cs, c)
		return nil
	})
}

func decodeStrings(d *jx.Decoder) ([]string, error) {
	if d.Next() == jx.Null {
		return nil, d.Null()
	}
	var out []string
	err := d.Arr(func(d *jx.Decoder) error {
		s, err := d.Str()
		if err != nil {
			return err
		}
		out = append(out, s)
		return nil
	})
	return out, err
}
