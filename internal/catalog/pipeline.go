package catalog

import (
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/fakeshop/storefront/internal/domain/product"
)

// View is the derived, render-ready slice of the catalog.
type View struct {
	// Items is the current page of the filtered, sorted product list.
	Items []product.Product
	// Filtered is the match count before pagination.
	Filtered int
	// Page is the current 1-based page number.
	Page int
	// TotalPages is ceil(Filtered / PageSize).
	TotalPages int
	// State mirrors the fetch state the view was derived from.
	State State
}

// View derives the visible product list: filter, then sort, then paginate.
// The derivation is recomputed in full on every call; inputs are immutable
// snapshots so no incremental bookkeeping is needed.
func (s *Store) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	matched := s.filtered()
	sortProducts(matched, s.sort)

	total := totalPages(len(matched))
	start := (s.page - 1) * PageSize
	var items []product.Product
	if start < len(matched) {
		end := min(start+PageSize, len(matched))
		items = matched[start:end]
	}

	return View{
		Items:      items,
		Filtered:   len(matched),
		Page:       s.page,
		TotalPages: total,
		State:      s.state,
	}
}

// filtered applies the search and category predicates in catalog order.
// Caller holds mu. The returned slice is freshly allocated, so sorting it
// never disturbs the snapshot.
func (s *Store) filtered() []product.Product {
	term := strings.ToLower(s.debouncedTerm)

	var out []product.Product
	for _, p := range s.products {
		matchesSearch := term == "" ||
			strings.Contains(strings.ToLower(p.Title), term) ||
			strings.Contains(strings.ToLower(p.Category), term)
		matchesCategory := s.category == CategoryAll ||
			strings.EqualFold(p.Category, s.category)
		if matchesSearch && matchesCategory {
			out = append(out, p)
		}
	}
	return out
}

// sortProducts orders products in place. SortDefault preserves filter order.
// Title comparisons are locale-aware.
func sortProducts(products []product.Product, opt SortOption) {
	switch opt {
	case SortPriceAsc:
		sort.SliceStable(products, func(i, j int) bool {
			return products[i].Price.LessThan(products[j].Price)
		})
	case SortPriceDesc:
		sort.SliceStable(products, func(i, j int) bool {
			return products[j].Price.LessThan(products[i].Price)
		})
	case SortNameAsc:
		c := collate.New(language.English)
		sort.SliceStable(products, func(i, j int) bool {
			return c.CompareString(products[i].Title, products[j].Title) < 0
		})
	case SortNameDesc:
		c := collate.New(language.English)
		sort.SliceStable(products, func(i, j int) bool {
			return c.CompareString(products[j].Title, products[i].Title) < 0
		})
	}
}

func totalPages(filtered int) int {
	return (filtered + PageSize - 1) / PageSize
}
