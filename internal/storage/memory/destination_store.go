package memory

import (
	"context"
	"sort"
	"sync"

	"solana-buy-alert/internal/storage"
)

// DestinationStore is an in-memory implementation of storage.DestinationStore.
type DestinationStore struct {
	mu   sync.RWMutex
	data map[int64]struct{}
}

// NewDestinationStore creates a new in-memory destination store seeded with ids.
func NewDestinationStore(ids ...int64) *DestinationStore {
	s := &DestinationStore{data: make(map[int64]struct{}, len(ids))}
	for _, id := range ids {
		s.data[id] = struct{}{}
	}
	return s
}

// List returns all destination IDs in ascending order.
func (s *DestinationStore) List(_ context.Context) ([]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]int64, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// Add registers a destination. Adding an existing ID is a no-op.
func (s *DestinationStore) Add(_ context.Context, id int64) error {
	if id == 0 {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[id] = struct{}{}
	return nil
}

// Remove unregisters a destination. Returns ErrNotFound if not registered.
func (s *DestinationStore) Remove(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.data, id)
	return nil
}
