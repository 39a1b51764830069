package appeal

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory Store for development and tests.
type MemoryStore struct {
	mu       sync.RWMutex
	statuses map[identity]string
}

type identity struct {
	email string
	ip    string
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory appeal store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{statuses: make(map[identity]string)}
}

// Put records an appeal status for (email, ip).
func (s *MemoryStore) Put(email, ip, status string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses[identity{email: email, ip: ip}] = status
}

// Status returns the appeal status for (email, ip).
func (s *MemoryStore) Status(ctx context.Context, email, ip string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	status, ok := s.statuses[identity{email: email, ip: ip}]
	return status, ok, nil
}
