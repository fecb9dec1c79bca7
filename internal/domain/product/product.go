package product

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// Product represents a catalog item available for purchase. Products are
// immutable once fetched; a snapshot lives for one fetch cycle.
type Product struct {
	ID          int
	Title       string
	Price       decimal.Decimal
	Category    string
	Image       string
	Description string
	Rating      Rating
}

// Rating holds the aggregate customer rating for a product.
type Rating struct {
	Rate  float64
	Count int
}

// Source defines the read operations the catalog needs from the remote
// product service.
type Source interface {
	List(ctx context.Context) ([]Product, error)
	GetByID(ctx context.Context, id int) (*Product, error)
	Categories(ctx context.Context) ([]string, error)
}
