package store_test

import (
	"testing"

	"github.com/hupe1980/supportmesh/internal/testutil"
	"github.com/hupe1980/supportmesh/store"
)

func TestInMemoryStore(t *testing.T) {
	testutil.RunStoreSuite(t, func(*testing.T) store.Store {
		return store.NewInMemoryStore()
	})
}
