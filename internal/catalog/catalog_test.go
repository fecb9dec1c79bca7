package catalog

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fakeshop/storefront/internal/domain/product"
)

// mockSource is a controllable product.Source.
type mockSource struct {
	mu         sync.Mutex
	products   []product.Product
	categories []string
	listErr    error
	block      chan struct{} // when set, List waits until closed
}

func (m *mockSource) List(ctx context.Context) ([]product.Product, error) {
	m.mu.Lock()
	block, err, products := m.block, m.listErr, m.products
	m.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	return products, nil
}

func (m *mockSource) GetByID(_ context.Context, id int) (*product.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.products {
		if m.products[i].ID == id {
			return &m.products[i], nil
		}
	}
	return nil, product.ErrNotFound
}

func (m *mockSource) Categories(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.categories, nil
}

func (m *mockSource) setErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listErr = err
}

func TestLoad_Success(t *testing.T) {
	src := &mockSource{products: twentyProducts(), categories: []string{"electronics", "jewelery"}}
	s := NewStore(src, time.Millisecond, zap.NewNop())

	state, _ := s.FetchState()
	require.Equal(t, StateIdle, state)

	require.NoError(t, s.Load(context.Background()))

	state, err := s.FetchState()
	assert.Equal(t, StateLoaded, state)
	assert.NoError(t, err)
	assert.Equal(t, []string{"electronics", "jewelery"}, s.Categories())
}

func TestLoad_FailureIsTerminalUntilReload(t *testing.T) {
	src := &mockSource{}
	src.setErr(errors.New("connection refused"))
	s := NewStore(src, time.Millisecond, zap.NewNop())

	require.Error(t, s.Load(context.Background()))
	state, err := s.FetchState()
	assert.Equal(t, StateFailed, state)
	assert.ErrorContains(t, err, "connection refused")

	// Manual reload is the only recovery.
	src.setErr(nil)
	src.mu.Lock()
	src.products = twentyProducts()
	src.mu.Unlock()

	require.NoError(t, s.Reload(context.Background()))
	state, _ = s.FetchState()
	assert.Equal(t, StateLoaded, state)
	assert.Equal(t, 20, s.View().Filtered)
}

func TestLoad_WhileLoading(t *testing.T) {
	block := make(chan struct{})
	src := &mockSource{products: twentyProducts(), block: block}
	s := NewStore(src, time.Millisecond, zap.NewNop())

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.Load(context.Background())
	}()

	require.Eventually(t, func() bool {
		state, _ := s.FetchState()
		return state == StateLoading
	}, time.Second, time.Millisecond)

	require.ErrorIs(t, s.Load(context.Background()), ErrLoadInProgress)

	close(block)
	<-done
}

func TestClose_DiscardsInFlightResult(t *testing.T) {
	block := make(chan struct{})
	src := &mockSource{products: twentyProducts(), block: block}
	s := NewStore(src, time.Millisecond, zap.NewNop())

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.Load(context.Background())
	}()

	require.Eventually(t, func() bool {
		state, _ := s.FetchState()
		return state == StateLoading
	}, time.Second, time.Millisecond)

	// Unmount while the fetch is in flight.
	s.Close()
	close(block)
	<-done

	state, _ := s.FetchState()
	assert.Equal(t, StateIdle, state, "stale result must be discarded, not applied")
	assert.Equal(t, 0, s.View().Filtered)
}

func TestSearch_DebouncedToFinalTerm(t *testing.T) {
	src := &mockSource{products: []product.Product{
		{ID: 1, Title: "Gold Ring", Category: "jewelery"},
		{ID: 2, Title: "Gold Chain", Category: "jewelery"},
	}}
	s := NewStore(src, 40*time.Millisecond, zap.NewNop())
	require.NoError(t, s.Load(context.Background()))

	// Rapid keystrokes within the window collapse to the final term.
	for _, term := range []string{"c", "ch", "cha", "chai", "chain"} {
		s.Search(term)
		time.Sleep(2 * time.Millisecond)
	}

	assert.Equal(t, "chain", s.SearchTerm(), "raw term updates immediately")
	assert.Equal(t, 2, s.View().Filtered, "effective term lags until quiescence")

	require.Eventually(t, func() bool { return s.View().Filtered == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 2, s.View().Items[0].ID)
}
