package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"solana-buy-alert/internal/domain"
	"solana-buy-alert/internal/storage"
)

// BuyEventStore is an in-memory implementation of storage.BuyEventStore.
type BuyEventStore struct {
	mu   sync.RWMutex
	data []*domain.BuyRecord
}

// NewBuyEventStore creates a new in-memory buy event store.
func NewBuyEventStore() *BuyEventStore {
	return &BuyEventStore{}
}

// InsertBulk appends buy records. Fails the whole batch on invalid input.
func (s *BuyEventStore) InsertBulk(_ context.Context, records []*domain.BuyRecord) error {
	for _, r := range records {
		if r == nil || r.Buy.Signature == "" {
			return storage.ErrInvalidInput
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range records {
		recordCopy := *r
		s.data = append(s.data, &recordCopy)
	}
	return nil
}

// GetByTimeRange retrieves records that occurred within [start, end], ordered by time ASC.
func (s *BuyEventStore) GetByTimeRange(_ context.Context, start, end time.Time) ([]*domain.BuyRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.BuyRecord
	for _, r := range s.data {
		at := r.Buy.OccurredAt
		if !at.Before(start) && !at.After(end) {
			recordCopy := *r
			result = append(result, &recordCopy)
		}
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Buy.OccurredAt.Before(result[j].Buy.OccurredAt)
	})
	return result, nil
}
