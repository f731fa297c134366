package memory

import (
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/aretw0/lattice/pkg/ports"
	"github.com/aretw0/lattice/pkg/value"
)

// Store implements ports.SnapshotStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]map[string]value.Value
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]map[string]value.Value),
	}
}

// Save keeps a deep copy of snap.
func (s *Store) Save(_ context.Context, id string, snap map[string]value.Value) error {
	copied := clone(snap)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[id] = copied
	return nil
}

// Load returns a deep copy so callers can't mutate the stored snapshot.
func (s *Store) Load(_ context.Context, id string) (map[string]value.Value, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap, ok := s.data[id]
	if !ok {
		return nil, ports.ErrSnapshotNotFound
	}
	return clone(snap), nil
}

// Delete removes the snapshot.
func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, id)
	return nil
}

// List returns the stored ids in order.
func (s *Store) List(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Sorted(maps.Keys(s.data)), nil
}

func clone(snap map[string]value.Value) map[string]value.Value {
	out := make(map[string]value.Value, len(snap))
	for name, v := range snap {
		out[name] = v.Clone()
	}
	return out
}
