package store

import (
	"context"
	"sync"
)

// memoryStore implementa Store con un map en memoria.
// Útil para desarrollo y testing.
type memoryStore struct {
	mu    sync.RWMutex
	users map[string]*User
}

// NewMemory crea un store en memoria con los usuarios dados.
func NewMemory(users ...*User) Store {
	m := &memoryStore{users: make(map[string]*User, len(users))}
	for _, u := range users {
		m.users[u.Username] = u
	}
	return m
}

func (s *memoryStore) FindByUsername(_ context.Context, username string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[username]
	if !ok {
		return nil, ErrNotFound
	}
	return u, nil
}
