package ledger

import (
	"context"
	"sync"
)

// MemoryStore is an in-process Store, used for tests and ephemeral guests.
type MemoryStore struct {
	mu   sync.Mutex
	data map[string]Ledger
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]Ledger)}
}

func (s *MemoryStore) Load(_ context.Context, learnerID string) (Ledger, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data[learnerID], nil
}

func (s *MemoryStore) Upsert(_ context.Context, learnerID string, e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[learnerID] = s.data[learnerID].With(e)
	return nil
}

func (s *MemoryStore) Reset(_ context.Context, learnerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, learnerID)
	return nil
}
