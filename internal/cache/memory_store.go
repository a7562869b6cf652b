package cache

import (
	"context"
	"sync"
)

// MemoryStore keeps entries in a map keyed by the hash of the key string.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[uint64]Entry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[uint64]Entry)}
}

func (s *MemoryStore) Get(_ context.Context, key string) (Entry, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[Hash(key)]
	if !ok || e.Key != key {
		return Entry{}, false, nil
	}
	return e, true, nil
}

// Set replaces whatever sits under the hash, colliding keys included.
func (s *MemoryStore) Set(_ context.Context, e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[Hash(e.Key)] = e
	return nil
}

func (s *MemoryStore) Len(context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries), nil
}

func (s *MemoryStore) Clear(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[uint64]Entry)
	return nil
}
