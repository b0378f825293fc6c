package datastore

import (
	"context"
	"sync"
)

// MemoryStore keeps recordings in a map guarded by one RWMutex.
// An order slice preserves insertion order for List.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*Recording
	order   []string
}

// NewMemoryStore creates an empty in-process store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]*Recording)}
}

func (s *MemoryStore) Insert(_ context.Context, rec *Recording) error {
	stored := rec.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[stored.ID]; exists {
		return conflictError(stored.ID)
	}
	s.records[stored.ID] = &stored
	s.order = append(s.order, stored.ID)
	return nil
}

func (s *MemoryStore) List(_ context.Context) ([]Recording, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Recording, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.records[id].Clone())
	}
	return out, nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (Recording, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[id]
	if !ok {
		return Recording{}, notFoundError(id)
	}
	return rec.Clone(), nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[id]; !ok {
		return notFoundError(id)
	}
	delete(s.records, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

func (s *MemoryStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records), nil
}

// Close is a no-op; contents are dropped with the process
func (s *MemoryStore) Close() error {
	return nil
}
