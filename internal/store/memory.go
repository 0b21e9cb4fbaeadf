package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/backmassage/beatcut/internal/plan"
)

// MemoryStore keeps encoded documents in a map. Documents are stored in
// encoded form so callers never share mutable state.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

func (s *MemoryStore) Put(_ context.Context, d *plan.Document) error {
	if d == nil {
		return fmt.Errorf("document is nil")
	}
	id, err := checkID(d.ID)
	if err != nil {
		return err
	}
	raw, err := plan.Marshal(d)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[id] = raw
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*plan.Document, error) {
	id, err := checkID(id)
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	raw, ok := s.data[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return decodeBytes(raw)
}

func (s *MemoryStore) List(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.data))
	for id := range s.data {
		out = append(out, id)
	}
	sort.Strings(out)
	return out, nil
}
