package model

import (
	"context"
	"fmt"
	"sync"
)

// MemoryStore is an in-memory Store. It is safe for concurrent reads once loaded.
type MemoryStore struct {
	mu      sync.RWMutex
	ordered []*Component
	index   map[Kind]map[string]*Component
}

// NewMemoryStore creates a store holding the given components.
func NewMemoryStore(components ...*Component) *MemoryStore {
	s := &MemoryStore{index: make(map[Kind]map[string]*Component)}
	s.Add(components...)
	return s
}

// Add stores components. A component with the label of an existing one of the
// same kind replaces it in the index; both remain visible to Find.
func (s *MemoryStore) Add(components ...*Component) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range components {
		if c == nil {
			continue
		}
		byLabel, ok := s.index[c.Kind]
		if !ok {
			byLabel = make(map[string]*Component)
			s.index[c.Kind] = byLabel
		}
		byLabel[c.Label()] = c
		s.ordered = append(s.ordered, c)
	}
}

// Len returns the number of stored components.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.ordered)
}

// Get returns the component of the given kind and label.
func (s *MemoryStore) Get(_ context.Context, kind Kind, label string) (*Component, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if c, ok := s.index[kind][label]; ok {
		return c, nil
	}
	return nil, fmt.Errorf("%s %q: %w", kind, label, ErrNotFound)
}

// Find returns the components matching criteria in insertion order.
func (s *MemoryStore) Find(_ context.Context, criteria Criteria) ([]*Component, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Component
	for _, c := range s.ordered {
		if criteria.Matches(c) {
			out = append(out, c)
		}
	}
	return out, nil
}

// LocalTerm returns the local terminology entry for term in prefix.
func (s *MemoryStore) LocalTerm(ctx context.Context, prefix, term string) (*Component, error) {
	return s.Get(ctx, KindLocalTerm, LocalTermLabel(prefix, term))
}

// LocalTerms returns every local terminology entry in prefix.
func (s *MemoryStore) LocalTerms(ctx context.Context, prefix string) ([]*Component, error) {
	return s.Find(ctx, Criteria{Kind: KindLocalTerm, Prefix: prefix})
}

// Namespace returns the namespace with the given prefix.
func (s *MemoryStore) Namespace(ctx context.Context, prefix string) (*Component, error) {
	return s.Get(ctx, KindNamespace, prefix)
}
