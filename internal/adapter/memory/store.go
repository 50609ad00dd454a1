// Package memory provides a process-local session memory.
package memory

import (
	"context"
	"sync"

	"github.com/couchcryptid/agri-advisory-service/internal/domain"
)

// Store keeps the last query per kind in a map. Its contents are lost when
// the process exits.
type Store struct {
	mu   sync.RWMutex
	last map[domain.Kind]string
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{last: make(map[domain.Kind]string)}
}

// Recall returns the last query remembered for kind.
func (s *Store) Recall(_ context.Context, kind domain.Kind) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q, ok := s.last[kind]
	return q, ok, nil
}

// Remember overwrites the last query for kind.
func (s *Store) Remember(_ context.Context, kind domain.Kind, query string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last[kind] = query
	return nil
}
