package product

import (
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"
)

// Encode writes p in the remote wire format.
func (p Product) Encode(e *jx.Encoder) {
	e.ObjStart()
	e.FieldStart("id")
	e.Int(p.ID)
	e.FieldStart("title")
	e.Str(p.Title)
	e.FieldStart("price")
	e.Num(jx.Num(p.Price.String()))
	e.FieldStart("category")
	e.Str(p.Category)
	e.FieldStart("image")
	e.Str(p.Image)
	e.FieldStart("description")
	e.Str(p.Description)
	e.FieldStart("rating")
	e.ObjStart()
	e.FieldStart("rate")
	e.Float64(p.Rating.Rate)
	e.FieldStart("count")
	e.Int(p.Rating.Count)
	e.ObjEnd()
	e.ObjEnd()
}

// Decode reads p from the remote wire format. Unknown fields are skipped so
// the client tolerates additive API changes.
func (p *Product) Decode(d *jx.Decoder) error {
	return d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "id":
			p.ID, err = d.Int()
		case "title":
			p.Title, err = d.Str()
		case "price":
			var num jx.Num
			if num, err = d.Num(); err == nil {
				p.Price, err = decimal.NewFromString(num.String())
			}
		case "category":
			p.Category, err = d.Str()
		case "image":
			p.Image, err = d.Str()
		case "description":
			p.Description, err = d.Str()
		case "rating":
			err = d.Obj(func(d *jx.Decoder, key string) error {
				var err error
				switch key {
				case "rate":
					p.Rating.Rate, err = d.Float64()
				case "count":
					p.Rating.Count, err = d.Int()
				default:
					err = d.Skip()
				}
				return err
			})
		default:
			err = d.Skip()
		}
		if err != nil {
			return errors.Wrapf(err, "field %q", key)
		}
		return nil
	})
}

// DecodeList reads a JSON array of products.
func DecodeList(d *jx.Decoder) ([]Product, error) {
	var out []Product
	if err := d.Arr(func(d *jx.Decoder) error {
		var p Product
		if err := p.Decode(d); err != nil {
			return err
		}
		out = append(out, p)
		return nil
	}); err != nil {
		return nil, errors.Wrap(err, "decode product list")
	}
	return out, nil
}
