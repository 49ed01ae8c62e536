// Package memory provides an in-memory snapshot store, useful for tests
// and for single-process setups that only need recovery within the same
// run.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/quire/pkg/domain"
	"github.com/aretw0/quire/pkg/nbformat"
)

// Store implements ports.SnapshotStore backed by a map.
// Snapshots are stored serialized so callers cannot alias the stored state.
type Store struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewStore creates an empty in-memory snapshot store.
func NewStore() *Store {
	return &Store{data: make(map[string][]byte)}
}

// Save persists the snapshot for a given document id.
func (s *Store) Save(ctx context.Context, id string, nb *nbformat.Notebook) error {
	if id == "" {
		return fmt.Errorf("document id cannot be empty")
	}
	data, err := nb.Encode()
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[id] = data
	return nil
}

// Load retrieves the snapshot for a given document id.
func (s *Store) Load(ctx context.Context, id string) (*nbformat.Notebook, error) {
	s.mu.RLock()
	data, ok := s.data[id]
	s.mu.RUnlock()
	if !ok {
		return nil, domain.ErrDocumentNotFound
	}
	return nbformat.Decode(data)
}

// Delete removes the snapshot for a given document id.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, id)
	return nil
}

// List returns the ids of all stored snapshots, sorted.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
