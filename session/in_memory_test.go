package session

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Interface compliance (compile-time assertion)
var _ Store = (*InMemoryStore)(nil)

func TestInMemoryStore_AppendAndTranscript(t *testing.T) {
	s := NewInMemoryStore()
	fixed := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	require.NoError(t, s.Append("a", Turn{Role: RoleUser, Text: "Where is ORD-1?"}))
	require.NoError(t, s.Append("a", Turn{Role: RoleAssistant, Text: "Shipped."}))

	got, err := s.Transcript("a")
	require.NoError(t, err)
	assert.Equal(t, []Turn{
		{Role: RoleUser, Text: "Where is ORD-1?", Time: fixed},
		{Role: RoleAssistant, Text: "Shipped.", Time: fixed},
	}, got)

	empty, err := s.Transcript("b")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestInMemoryStore_TranscriptIsCopy(t *testing.T) {
	s := NewInMemoryStore()
	require.NoError(t, s.Append("a", Turn{Role: RoleUser, Text: "hi"}))

	got, _ := s.Transcript("a")
	got[0].Text = "mutated"

	again, _ := s.Transcript("a")
	assert.Equal(t, "hi", again[0].Text)
}

func TestInMemoryStore_Delete(t *testing.T) {
	s := NewInMemoryStore()
	require.NoError(t, s.Append("a", Turn{Role: RoleUser, Text: "hi"}))
	assert.Equal(t, 1, s.Len())

	require.NoError(t, s.Delete("a"))
	assert.Equal(t, 0, s.Len())
}

func TestInMemoryStore_ConcurrentAppends(t *testing.T) {
	s := NewInMemoryStore()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = s.Append("shared", Turn{Role: RoleUser, Text: fmt.Sprint(i)})
		}(i)
	}
	wg.Wait()

	got, err := s.Transcript("shared")
	require.NoError(t, err)
	assert.Len(t, got, 20)
}
