package catalog

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fakeshop/storefront/internal/domain/product"
)

// twentyProducts builds the pipeline fixture: ids 1..20, ids 1-12 in
// "electronics", ids 13-20 in "jewelery", prices descending from 20.00.
func twentyProducts() []product.Product {
	var out []product.Product
	for i := 1; i <= 20; i++ {
		category := "electronics"
		if i > 12 {
			category = "jewelery"
		}
		out = append(out, product.Product{
			ID:       i,
			Title:    fmt.Sprintf("Item %02d", i),
			Price:    decimal.NewFromInt(int64(21 - i)),
			Category: category,
		})
	}
	return out
}

func loadedStore(t *testing.T, products []product.Product) *Store {
	t.Helper()
	src := &mockSource{products: products, categories: []string{"electronics", "jewelery"}}
	s := NewStore(src, time.Millisecond, zap.NewNop())
	require.NoError(t, s.Load(context.Background()))
	return s
}

func TestView_PageSizeAndTotalPages(t *testing.T) {
	s := loadedStore(t, twentyProducts())

	v := s.View()
	assert.Equal(t, 20, v.Filtered)
	assert.Equal(t, 2, v.TotalPages, "totalPages for 20 items is 2")
	assert.Len(t, v.Items, PageSize, "page size never exceeds 12")

	s.ChangePage(2)
	v = s.View()
	assert.Equal(t, 2, v.Page)
	assert.Len(t, v.Items, 8)
}

func TestView_FilterByCategory(t *testing.T) {
	s := loadedStore(t, twentyProducts())
	s.SetCategory("jewelery")

	v := s.View()
	assert.Equal(t, 8, v.Filtered)
	for _, p := range v.Items {
		assert.Equal(t, "jewelery", p.Category, "only the selected category survives the filter")
	}
}

func TestView_CategoryMatchIsCaseInsensitive(t *testing.T) {
	s := loadedStore(t, twentyProducts())
	s.SetCategory("Jewelery")
	assert.Equal(t, 8, s.View().Filtered)
}

func TestView_SearchMatchesTitleOrCategory(t *testing.T) {
	s := loadedStore(t, []product.Product{
		{ID: 1, Title: "Gold Ring", Category: "jewelery", Price: decimal.NewFromInt(10)},
		{ID: 2, Title: "USB Cable", Category: "electronics", Price: decimal.NewFromInt(5)},
		{ID: 3, Title: "Ring Light", Category: "electronics", Price: decimal.NewFromInt(30)},
	})

	s.Search("ring")
	require.Eventually(t, func() bool { return s.View().Filtered == 2 }, time.Second, 5*time.Millisecond)

	// Matches by category too.
	s.Search("JEWEL")
	require.Eventually(t, func() bool { return s.View().Filtered == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, s.View().Items[0].ID)
}

func TestView_SortPriceAsc(t *testing.T) {
	s := loadedStore(t, twentyProducts())
	s.SetSort(SortPriceAsc)

	prev := decimal.NewFromInt(-1)
	for page := 1; page <= 2; page++ {
		s.ChangePage(page)
		for _, p := range s.View().Items {
			assert.True(t, prev.LessThanOrEqual(p.Price),
				"price sequence must be non-decreasing, got %s after %s", p.Price, prev)
			prev = p.Price
		}
	}
}

func TestView_SortPriceDesc(t *testing.T) {
	s := loadedStore(t, twentyProducts())
	s.SetSort(SortPriceDesc)

	items := s.View().Items
	require.NotEmpty(t, items)
	assert.True(t, items[0].Price.Equal(decimal.NewFromInt(20)))
}

func TestView_SortNameAscAndDesc(t *testing.T) {
	products := []product.Product{
		{ID: 1, Title: "zebra print scarf", Category: "c", Price: decimal.NewFromInt(1)},
		{ID: 2, Title: "Apple Watch Band", Category: "c", Price: decimal.NewFromInt(2)},
		{ID: 3, Title: "mango phone case", Category: "c", Price: decimal.NewFromInt(3)},
	}
	s := loadedStore(t, products)

	s.SetSort(SortNameAsc)
	asc := s.View().Items
	assert.Equal(t, []int{2, 3, 1}, ids(asc), "locale-aware ascending ignores case")

	s.SetSort(SortNameDesc)
	desc := s.View().Items
	assert.Equal(t, []int{1, 3, 2}, ids(desc), "descending is the exact reverse")
}

func TestView_SortDefaultPreservesFilterOrder(t *testing.T) {
	s := loadedStore(t, twentyProducts())
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}, ids(s.View().Items))
}

func TestSetCategory_ResetsPage(t *testing.T) {
	s := loadedStore(t, twentyProducts())
	s.ChangePage(2)
	require.Equal(t, 2, s.View().Page)

	s.SetCategory("electronics")
	assert.Equal(t, 1, s.View().Page)
}

func TestChangePage_RejectsOutOfRange(t *testing.T) {
	s := loadedStore(t, twentyProducts())

	s.ChangePage(0)
	assert.Equal(t, 1, s.View().Page)
	s.ChangePage(3)
	assert.Equal(t, 1, s.View().Page)
	s.ChangePage(-4)
	assert.Equal(t, 1, s.View().Page)

	s.ChangePage(2)
	assert.Equal(t, 2, s.View().Page)
}

func ids(products []product.Product) []int {
	out := make([]int, len(products))
	for i, p := range products {
		out[i] = p.ID
	}
	return out
}
