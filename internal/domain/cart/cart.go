// Package cart implements the identity-scoped shopping cart: line items keyed
// by product id, merged quantities, and synchronous persistence to the durable
// store so a restart restores the last observed state.
package cart

import (
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/fakeshop/storefront/internal/domain/product"
)

// ErrNotFound is returned by mutations that reference a product id with no
// line item in the cart.
var ErrNotFound = errors.New("cart line item not found")

// LineItem is one product entry in a cart. Quantity is always >= 1: an item
// decremented to zero is removed, never retained.
type LineItem struct {
	product.Product
	Quantity int
}

// anonymousKey is the storage key for the unauthenticated cart.
const anonymousKey = "cartItems"

// storageKeyFor maps an identity token to its cart storage key. It is the
// single source of truth for cart persistence keys; every read and write site
// goes through it.
func storageKeyFor(token string) string {
	if token == "" {
		return anonymousKey
	}
	return anonymousKey + "_" + token
}

func (li LineItem) encode(e *jx.Encoder) {
	e.ObjStart()
	e.FieldStart("id")
	e.Int(li.ID)
	e.FieldStart("title")
	e.Str(li.Title)
	e.FieldStart("price")
	e.Num(jx.Num(li.Price.String()))
	e.FieldStart("category")
	e.Str(li.Category)
	e.FieldStart("image")
	e.Str(li.Image)
	e.FieldStart("quantity")
	e.Int(li.Quantity)
	e.ObjEnd()
}

func (li *LineItem) decode(d *jx.Decoder) error {
	return d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "id":
			li.ID, err = d.Int()
		case "title":
			li.Title, err = d.Str()
		case "price":
			var num jx.Num
			if num, err = d.Num(); err == nil {
				li.Price, err = decimal.NewFromString(num.String())
			}
		case "category":
			li.Category, err = d.Str()
		case "image":
			li.Image, err = d.Str()
		case "quantity":
			li.Quantity, err = d.Int()
		default:
			err = d.Skip()
		}
		if err != nil {
			return errors.Wrapf(err, "field %q", key)
		}
		return nil
	})
}

func encodeItems(items []LineItem) []byte {
	var e jx.Encoder
	e.ArrStart()
	for _, li := range items {
		li.encode(&e)
	}
	e.ArrEnd()
	return e.Bytes()
}

func decodeItems(raw []byte) ([]LineItem, error) {
	var items []LineItem
	d := jx.DecodeBytes(raw)
	if err := d.Arr(func(d *jx.Decoder) error {
		var li LineItem
		if err := li.decode(d); err != nil {
			return err
		}
		items = append(items, li)
		return nil
	}); err != nil {
		return nil, errors.Wrap(err, "decode cart items")
	}
	return items, nil
}
