package flag

import (
	"context"
	"sync"
)

// MemoryStore keeps flags in a mutex-guarded map.
type MemoryStore struct {
	mu    sync.RWMutex
	flags map[string]bool
}

func NewMemory() *MemoryStore {
	return &MemoryStore{flags: make(map[string]bool)}
}

func (s *MemoryStore) Get(_ context.Context, name string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if value, exists := s.flags[name]; exists {
		return value, nil
	}
	return false, ErrNotFound
}

func (s *MemoryStore) Set(_ context.Context, name string, value bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flags[name] = value
	return nil
}
