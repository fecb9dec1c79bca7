// Package catalog owns the product snapshot and the UI-facing query state,
// and derives the visible product list from them: filter, then sort, then
// paginate, recomputed in full on every read.
package catalog

import (
	"context"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/fakeshop/storefront/internal/domain/product"
	"github.com/fakeshop/storefront/pkg/debounce"
)

// PageSize is the fixed number of products per page.
const PageSize = 12

// CategoryAll is the sentinel matching every category.
const CategoryAll = "all"

// DebounceWindow is the search quiescence window: the effective filter term
// commits only after this long with no further keystrokes.
const DebounceWindow = 300 * time.Millisecond

// SortOption selects the ordering applied between filter and pagination.
type SortOption string

const (
	SortDefault   SortOption = "default"
	SortPriceAsc  SortOption = "price-asc"
	SortPriceDesc SortOption = "price-desc"
	SortNameAsc   SortOption = "name-asc"
	SortNameDesc  SortOption = "name-desc"
)

// State is the fetch state machine: Idle -> Loading -> {Loaded | Failed}.
// Loaded and Failed are terminal for a fetch generation; Reload starts a new
// generation.
type State int

const (
	StateIdle State = iota
	StateLoading
	StateLoaded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateLoaded:
		return "loaded"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// ErrLoadInProgress is returned by Load while a fetch is already running.
var ErrLoadInProgress = errors.New("catalog load already in progress")

// Store holds the immutable product snapshot and the transient query state.
// Query state is never persisted; it resets with the process.
type Store struct {
	source   product.Source
	lg       *zap.Logger
	debounce *debounce.Debouncer

	mu         sync.Mutex
	state      State
	fetchErr   error
	gen        int
	products   []product.Product
	categories []string

	searchTerm    string
	debouncedTerm string
	category      string
	sort          SortOption
	page          int
}

// NewStore creates an idle catalog store reading from source. window is the
// search debounce window; zero means DebounceWindow.
func NewStore(source product.Source, window time.Duration, lg *zap.Logger) *Store {
	if window == 0 {
		window = DebounceWindow
	}
	return &Store{
		source:   source,
		lg:       lg,
		debounce: debounce.New(window),
		state:    StateIdle,
		category: CategoryAll,
		sort:     SortDefault,
		page:     1,
	}
}

// Load fetches the product snapshot and the category list concurrently.
// The store transitions to Loading immediately and to Loaded or Failed when
// the fetch settles. If the generation moved on in the meantime (Reload or
// Close while in flight), the result is discarded, not applied.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	if s.state == StateLoading {
		s.mu.Unlock()
		return ErrLoadInProgress
	}
	s.state = StateLoading
	s.fetchErr = nil
	s.gen++
	gen := s.gen
	s.mu.Unlock()

	var (
		products   []product.Product
		categories []string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		products, err = s.source.List(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		categories, err = s.source.Categories(gctx)
		return err
	})
	err := g.Wait()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		s.lg.Debug("Discarding stale catalog fetch", zap.Int("gen", gen))
		return nil
	}
	if err != nil {
		s.state = StateFailed
		s.fetchErr = err
		return err
	}
	s.products = products
	s.categories = categories
	s.state = StateLoaded
	s.lg.Info("Catalog loaded",
		zap.Int("products", len(products)),
		zap.Int("categories", len(categories)),
	)
	return nil
}

// Reload starts a new fetch generation. Any in-flight fetch from the previous
// generation is discarded on arrival. This is the only recovery from Failed.
func (s *Store) Reload(ctx context.Context) error {
	s.mu.Lock()
	s.gen++
	s.state = StateIdle
	s.fetchErr = nil
	s.mu.Unlock()
	return s.Load(ctx)
}

// Close invalidates the current generation and cancels any pending debounced
// search, so in-flight work is discarded rather than applied.
func (s *Store) Close() {
	s.debounce.Cancel()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	s.state = StateIdle
}

// FetchState returns the current state and, when Failed, the terminal error.
func (s *Store) FetchState() (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state, s.fetchErr
}

// Search updates the raw search term immediately and schedules the effective
// (debounced) term commit. A newer keystroke within the window discards the
// pending commit.
func (s *Store) Search(term string) {
	s.mu.Lock()
	s.searchTerm = term
	s.mu.Unlock()

	s.debounce.Trigger(func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.debouncedTerm = term
	})
}

// SearchTerm returns the raw (not yet debounced) term.
func (s *Store) SearchTerm() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.searchTerm
}

// SetCategory selects a category filter and resets the page to 1.
func (s *Store) SetCategory(category string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.category = category
	s.page = 1
}

// SetSort selects the sort option.
func (s *Store) SetSort(opt SortOption) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sort = opt
}

// ChangePage moves to page if it lies within [1, totalPages] for the current
// filtered result; out-of-range requests are rejected as a no-op.
func (s *Store) ChangePage(page int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := totalPages(len(s.filtered()))
	if page < 1 || page > total {
		return
	}
	s.page = page
}

// Categories returns the known category list from the last successful fetch.
func (s *Store) Categories() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.categories))
	copy(out, s.categories)
	return out
}
