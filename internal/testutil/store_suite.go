package testutil

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/hupe1980/supportmesh/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// StoreFactory returns a fresh, empty store for one subtest.
type StoreFactory func(t *testing.T) store.Store

// RunStoreSuite runs the behaviour every store.Store implementation must
// share against stores produced by newStore.
func RunStoreSuite(t *testing.T, newStore StoreFactory) {
	t.Helper()

	seeded := func(t *testing.T) store.Store {
		s := newStore(t)
		require.NoError(t, store.Seed(context.Background(), s))
		return s
	}

	t.Run("SeedContinuesSequences", func(t *testing.T) {
		ctx := context.Background()
		s := seeded(t)

		products, err := s.Products(ctx)
		require.NoError(t, err)
		require.Len(t, products, len(store.SeedProducts))
		assert.Equal(t, "Dell XPS 15", products[0].Name)
		assert.Equal(t, "Logitech MX Master 3S Mouse", products[4].Name)

		o, err := s.GetOrder(ctx, "ORD-1")
		require.NoError(t, err)
		assert.Equal(t, store.Order{ID: "ORD-1", Product: "Dell XPS 15", Quantity: 1, CustomerID: "CUST-001", Status: store.OrderShipped}, o)

		c, err := s.GetComplaint(ctx, "CMP-2")
		require.NoError(t, err)
		assert.Equal(t, "Order delayed.", c.Text)
		assert.Equal(t, store.ComplaintPending, c.Status)

		next, err := s.CreateOrder(ctx, store.Order{Product: "Dell XPS 15", Quantity: 1, CustomerID: "Guest", Status: store.OrderProcessing})
		require.NoError(t, err)
		assert.Equal(t, "ORD-3", next.ID)

		nextCmp, err := s.CreateComplaint(ctx, store.Complaint{OrderID: "ORD-3", CustomerID: "Guest", Text: "late", Status: store.ComplaintPending})
		require.NoError(t, err)
		assert.Equal(t, "CMP-3", nextCmp.ID)

		require.NoError(t, store.Seed(ctx, s))
		products, err = s.Products(ctx)
		require.NoError(t, err)
		assert.Len(t, products, len(store.SeedProducts), "seeding twice must not duplicate")
	})

	t.Run("FindProduct", func(t *testing.T) {
		ctx := context.Background()
		s := seeded(t)

		p, err := s.FindProduct(ctx, "galaxy")
		require.NoError(t, err)
		assert.Equal(t, store.Product{Name: "Samsung Galaxy Tab S9", Price: 900, Stock: 12}, p)

		p, err = s.FindProduct(ctx, "XPS")
		require.NoError(t, err)
		assert.Equal(t, "Dell XPS 15", p.Name)

		_, err = s.FindProduct(ctx, "Nintendo Switch")
		assert.ErrorIs(t, err, store.ErrNotFound)

		_, err = s.FindProduct(ctx, "100%")
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("PutProductReplaces", func(t *testing.T) {
		ctx := context.Background()
		s := seeded(t)

		require.NoError(t, s.PutProduct(ctx, store.Product{Name: "Dell XPS 15", Price: 1400, Stock: 3}))
		p, err := s.GetProduct(ctx, "Dell XPS 15")
		require.NoError(t, err)
		assert.Equal(t, 1400.0, p.Price)
		assert.Equal(t, 3, p.Stock)

		products, err := s.Products(ctx)
		require.NoError(t, err)
		assert.Equal(t, "Dell XPS 15", products[0].Name, "replacing keeps catalog position")

		_, err = s.GetProduct(ctx, "missing")
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("DecrementStock", func(t *testing.T) {
		ctx := context.Background()
		s := seeded(t)

		p, err := s.DecrementStock(ctx, "Samsung Galaxy Tab S9", 3)
		require.NoError(t, err)
		assert.Equal(t, 9, p.Stock)

		_, err = s.DecrementStock(ctx, "Samsung Galaxy Tab S9", 1000)
		var stockErr *store.InsufficientStockError
		require.ErrorAs(t, err, &stockErr)
		assert.Equal(t, 9, stockErr.Available)

		p, err = s.GetProduct(ctx, "Samsung Galaxy Tab S9")
		require.NoError(t, err)
		assert.Equal(t, 9, p.Stock, "rejected decrement must not mutate")

		_, err = s.DecrementStock(ctx, "Samsung Galaxy Tab S9", 0)
		assert.ErrorIs(t, err, store.ErrInvalidQuantity)

		_, err = s.DecrementStock(ctx, "missing", 1)
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("UnknownIDs", func(t *testing.T) {
		ctx := context.Background()
		s := seeded(t)

		for _, id := range []string{"ORD-UNKNOWN", "ORD-99", "CMP-1", "ORD-01", "ORD-0002", "ORD-+1", ""} {
			_, err := s.GetOrder(ctx, id)
			assert.ErrorIs(t, err, store.ErrNotFound, id)
		}
		for _, id := range []string{"CMP-99", "CMP-01", "CMP-0002", "ORD-1"} {
			_, err := s.GetComplaint(ctx, id)
			assert.ErrorIs(t, err, store.ErrNotFound, id)
		}

		o, err := s.GetOrder(ctx, "ORD-1")
		require.NoError(t, err)
		assert.Equal(t, "ORD-1", o.ID)
	})

	t.Run("ConcurrentDecrementNeverOversells", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)
		require.NoError(t, s.PutProduct(ctx, store.Product{Name: "Widget", Price: 1, Stock: 10}))

		var (
			wg        sync.WaitGroup
			mu        sync.Mutex
			succeeded int
		)
		for i := 0; i < 25; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := s.DecrementStock(ctx, "Widget", 1)
				var stockErr *store.InsufficientStockError
				switch {
				case err == nil:
					mu.Lock()
					succeeded++
					mu.Unlock()
				case errors.As(err, &stockErr):
				default:
					t.Errorf("unexpected error: %v", err)
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, 10, succeeded)
		p, err := s.GetProduct(ctx, "Widget")
		require.NoError(t, err)
		assert.Equal(t, 0, p.Stock)
	})

	t.Run("ConcurrentOrdersGetUniqueIDs", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)

		var (
			wg  sync.WaitGroup
			mu  sync.Mutex
			ids = map[string]bool{}
		)
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				o, err := s.CreateOrder(ctx, store.Order{Product: "Widget", Quantity: 1, CustomerID: "Guest", Status: store.OrderProcessing})
				if !assert.NoError(t, err) {
					return
				}
				mu.Lock()
				ids[o.ID] = true
				mu.Unlock()
			}()
		}
		wg.Wait()
		assert.Len(t, ids, 20)
	})
}
