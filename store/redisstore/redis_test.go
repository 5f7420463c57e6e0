package redisstore

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/hupe1980/supportmesh/internal/testutil"
	"github.com/hupe1980/supportmesh/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *Store) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	s, err := New(Config{Addr: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	return mr, s
}

func TestStoreSuite(t *testing.T) {
	testutil.RunStoreSuite(t, func(t *testing.T) store.Store {
		_, s := setupTestRedis(t)
		return s
	})
}

func TestKeyLayout(t *testing.T) {
	mr, s := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, store.Seed(ctx, s))

	assert.Equal(t, "900", mr.HGet("supportmesh:product:Samsung Galaxy Tab S9", "price"))
	assert.Equal(t, "12", mr.HGet("supportmesh:product:Samsung Galaxy Tab S9", "stock"))
	assert.Equal(t, "Shipped", mr.HGet("supportmesh:order:ORD-1", "status"))

	seq, err := mr.Get("supportmesh:seq:order")
	require.NoError(t, err)
	assert.Equal(t, "2", seq)

	require.NoError(t, s.Ping(ctx))
}

func TestCustomPrefix(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	s, err := New(Config{Addr: mr.Addr(), KeyPrefix: "shop:"})
	require.NoError(t, err)
	defer s.Close()

	o, err := s.CreateOrder(context.Background(), store.Order{Product: "Dell XPS 15", Quantity: 1, CustomerID: "Guest", Status: store.OrderProcessing})
	require.NoError(t, err)
	assert.Equal(t, "ORD-1", o.ID)
	assert.True(t, mr.Exists("shop:order:ORD-1"))
}

func TestNew_ConnectionFailure(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	addr := mr.Addr()
	mr.Close()

	_, err = New(Config{Addr: addr})
	assert.Error(t, err)
}
