package precedent

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Store is the precedent persistence contract. The store is append-only
// and keyed by id; CitationCount is the only mutable field.
type Store interface {
	// Add persists a new precedent. Adding an existing id is an error.
	Add(ctx context.Context, p *Precedent) error

	// Get returns the precedent with the given id, or nil when absent.
	Get(ctx context.Context, id string) (*Precedent, error)

	// List returns all stored precedents, newest first.
	List(ctx context.Context) ([]*Precedent, error)

	// IncrementCitation bumps the citation count for a precedent.
	IncrementCitation(ctx context.Context, id string) error

	// Close releases any resources held by the store.
	Close() error
}

// MemoryStore is an in-memory Store for tests and ephemeral deployments.
type MemoryStore struct {
	mu         sync.RWMutex
	precedents map[string]*Precedent
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		precedents: make(map[string]*Precedent),
	}
}

// Add persists a new precedent.
func (m *MemoryStore) Add(_ context.Context, p *Precedent) error {
	if p == nil {
		return fmt.Errorf("precedent cannot be nil")
	}
	if p.ID == "" {
		return fmt.Errorf("precedent id cannot be empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.precedents[p.ID]; exists {
		return fmt.Errorf("precedent %s already exists", p.ID)
	}

	stored := *p
	m.precedents[p.ID] = &stored
	return nil
}

// Get returns a copy of the precedent with the given id, or nil.
func (m *MemoryStore) Get(_ context.Context, id string) (*Precedent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.precedents[id]
	if !ok {
		return nil, nil
	}
	out := *p
	return &out, nil
}

// List returns copies of all stored precedents, newest first.
func (m *MemoryStore) List(_ context.Context) ([]*Precedent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*Precedent, 0, len(m.precedents))
	for _, p := range m.precedents {
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// IncrementCitation bumps the citation count for a precedent.
func (m *MemoryStore) IncrementCitation(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.precedents[id]
	if !ok {
		return fmt.Errorf("precedent %s not found", id)
	}
	p.CitationCount++
	return nil
}

// Close is a no-op for the in-memory store.
func (m *MemoryStore) Close() error {
	return nil
}
