package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"solana-buy-alert/internal/domain"
	"solana-buy-alert/internal/storage"
)

// AlertStore is an in-memory implementation of storage.AlertStore.
type AlertStore struct {
	mu   sync.RWMutex
	data map[string]*domain.AlertRecord // keyed by signature
}

// NewAlertStore creates a new in-memory alert store.
func NewAlertStore() *AlertStore {
	return &AlertStore{
		data: make(map[string]*domain.AlertRecord),
	}
}

// Insert appends a record. Returns ErrDuplicateKey if the signature was already logged.
func (s *AlertStore) Insert(_ context.Context, r *domain.AlertRecord) error {
	if r == nil || r.Signature == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[r.Signature]; exists {
		return storage.ErrDuplicateKey
	}

	// Store a copy to prevent external mutation
	recordCopy := *r
	s.data[r.Signature] = &recordCopy
	return nil
}

// GetBySignature retrieves a record. Returns ErrNotFound if not exists.
func (s *AlertStore) GetBySignature(_ context.Context, signature string) (*domain.AlertRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, exists := s.data[signature]
	if !exists {
		return nil, storage.ErrNotFound
	}

	recordCopy := *r
	return &recordCopy, nil
}

// GetByTimeRange retrieves records sent within [start, end], ordered by sent time ASC.
func (s *AlertStore) GetByTimeRange(_ context.Context, start, end time.Time) ([]*domain.AlertRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.AlertRecord
	for _, r := range s.data {
		if !r.SentAt.Before(start) && !r.SentAt.After(end) {
			recordCopy := *r
			result = append(result, &recordCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].SentAt.Equal(result[j].SentAt) {
			return result[i].Signature < result[j].Signature
		}
		return result[i].SentAt.Before(result[j].SentAt)
	})
	return result, nil
}
