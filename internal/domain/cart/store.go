package cart

import (
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/fakeshop/storefront/internal/domain/product"
	"github.com/fakeshop/storefront/internal/storage"
)

// Store is the process-wide cart store. It owns the cart for the current
// identity and is the only writer to the cart's durable storage entry.
// Every mutation persists the full cart before returning.
type Store struct {
	storage storage.Store
	lg      *zap.Logger

	mu    sync.Mutex
	token string
	items []LineItem
}

// NewStore creates a cart store hydrated from the anonymous cart entry.
func NewStore(st storage.Store, lg *zap.Logger) *Store {
	s := &Store{
		storage: st,
		lg:      lg,
	}
	s.items = s.load("")
	return s
}

// SetIdentity swaps the in-memory cart to the persisted snapshot for the new
// identity. The previous identity's items never survive the switch, and carts
// for different identities are never merged.
func (s *Store) SetIdentity(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token == token {
		return
	}
	s.token = token
	s.items = s.load(token)
}

// Add inserts a line item with quantity 1, or increments the quantity of the
// existing line item for the same product id. The cart keeps insertion order
// and never holds two line items for one product.
func (s *Store) Add(p product.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.items {
		if s.items[i].ID == p.ID {
			s.items[i].Quantity++
			s.persist()
			return
		}
	}
	s.items = append(s.items, LineItem{Product: p, Quantity: 1})
	s.persist()
}

// Increment raises the quantity of the line item for id by 1.
// Returns ErrNotFound when the cart has no such item.
func (s *Store) Increment(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.items {
		if s.items[i].ID == id {
			s.items[i].Quantity++
			s.persist()
			return nil
		}
	}
	return ErrNotFound
}

// Decrement lowers the quantity of the line item for id by 1. An item at
// quantity 1 is removed entirely; quantity 0 is never observable.
// Returns ErrNotFound when the cart has no such item.
func (s *Store) Decrement(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.items {
		if s.items[i].ID != id {
			continue
		}
		if s.items[i].Quantity <= 1 {
			s.items = append(s.items[:i], s.items[i+1:]...)
		} else {
			s.items[i].Quantity--
		}
		s.persist()
		return nil
	}
	return ErrNotFound
}

// Remove deletes the line item for id regardless of quantity.
// Returns ErrNotFound when the cart has no such item.
func (s *Store) Remove(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.items {
		if s.items[i].ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			s.persist()
			return nil
		}
	}
	return ErrNotFound
}

// Clear empties the cart and deletes its persisted entry. This models
// checkout: there is no payment or order step behind it.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = nil
	if err := s.storage.Delete(storageKeyFor(s.token)); err != nil {
		s.lg.Error("Delete cart entry", zap.Error(err))
	}
}

// Items returns a snapshot copy of the current line items in insertion order.
func (s *Store) Items() []LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]LineItem, len(s.items))
	copy(out, s.items)
	return out
}

// Len returns the number of distinct line items.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Subtotal returns the sum of price times quantity over all line items,
// rounded to 2 decimal places.
func (s *Store) Subtotal() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := decimal.Zero
	for _, li := range s.items {
		total = total.Add(li.Price.Mul(decimal.NewFromInt(int64(li.Quantity))))
	}
	return total.Round(2)
}

// persist writes the full cart under the current identity's key.
// Caller holds mu. Persistence failures are logged, not surfaced: the
// in-memory cart stays authoritative for the running process.
func (s *Store) persist() {
	key := storageKeyFor(s.token)
	if err := s.storage.Set(key, string(encodeItems(s.items))); err != nil {
		s.lg.Error("Persist cart", zap.String("key", key), zap.Error(err))
	}
}

// load reads the persisted cart for token. A missing entry is an empty cart;
// a malformed entry is logged and reset to empty rather than propagated.
func (s *Store) load(token string) []LineItem {
	key := storageKeyFor(token)
	raw, ok := s.storage.Get(key)
	if !ok {
		return nil
	}
	items, err := decodeItems([]byte(raw))
	if err != nil {
		s.lg.Warn("Malformed cart entry, resetting to empty",
			zap.String("key", key),
			zap.Error(err),
		)
		return nil
	}
	return items
}
