package user

import (
	"context"
	"sync"

	id "quill/pkg/domain"
)

// MemoryStore keeps users in mutex-guarded maps.
type MemoryStore struct {
	mu     sync.RWMutex
	byName map[string]id.UserID
	byID   map[id.UserID]User
}

func NewMemory() *MemoryStore {
	return &MemoryStore{
		byName: make(map[string]id.UserID),
		byID:   make(map[id.UserID]User),
	}
}

func (s *MemoryStore) Create(_ context.Context, u User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byName[u.Name]; exists {
		return ErrNameTaken
	}
	s.byName[u.Name] = u.ID
	s.byID[u.ID] = u
	return nil
}

func (s *MemoryStore) FindByName(_ context.Context, name string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	userID, exists := s.byName[name]
	if !exists {
		return nil, ErrNotFound
	}
	u := s.byID[userID]
	return &u, nil
}

func (s *MemoryStore) FindByID(_ context.Context, userID id.UserID) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if u, exists := s.byID[userID]; exists {
		return &u, nil
	}
	return nil, ErrNotFound
}
