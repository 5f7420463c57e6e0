package session

import (
	"sync"
	"time"
)

// Transcript roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is one entry of a transcript.
type Turn struct {
	Role string
	Text string
	Time time.Time
}

// Store keeps transcripts keyed by session id.
type Store interface {
	// Append adds turns to the session, creating it on first use.
	Append(sessionID string, turns ...Turn) error
	// Transcript returns a copy of the session's turns; unknown sessions
	// have an empty transcript.
	Transcript(sessionID string) ([]Turn, error)
	// Delete drops the session.
	Delete(sessionID string) error
}

// InMemoryStore is a process local Store, safe for concurrent access.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[string][]Turn
	now      func() time.Time
}

// NewInMemoryStore constructs an empty in‑memory session store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{sessions: make(map[string][]Turn), now: time.Now}
}

// Append implements Store. Turns without a timestamp are stamped now.
func (s *InMemoryStore) Append(sessionID string, turns ...Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range turns {
		if t.Time.IsZero() {
			t.Time = s.now()
		}
		s.sessions[sessionID] = append(s.sessions[sessionID], t)
	}
	return nil
}

// Transcript implements Store.
func (s *InMemoryStore) Transcript(sessionID string) ([]Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Turn(nil), s.sessions[sessionID]...), nil
}

// Delete implements Store.
func (s *InMemoryStore) Delete(sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	return nil
}

// Len reports the number of live sessions.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
