package storage

import (
	"context"
	"time"

	"solana-buy-alert/internal/domain"
)

// DestinationStore provides access to the alert destination registry.
type DestinationStore interface {
	// List returns all registered destination IDs in ascending order.
	List(ctx context.Context) ([]int64, error)

	// Add registers a destination. Adding an existing ID is a no-op.
	Add(ctx context.Context, id int64) error

	// Remove unregisters a destination. Returns ErrNotFound if not registered.
	Remove(ctx context.Context, id int64) error
}

// AlertStore provides access to the alert audit log.
type AlertStore interface {
	// Insert appends a record. Returns ErrDuplicateKey if the signature was already logged.
	Insert(ctx context.Context, r *domain.AlertRecord) error

	// GetBySignature retrieves a record. Returns ErrNotFound if not exists.
	GetBySignature(ctx context.Context, signature string) (*domain.AlertRecord, error)

	// GetByTimeRange retrieves records sent within [start, end] (inclusive), ordered by sent_at ASC.
	GetByTimeRange(ctx context.Context, start, end time.Time) ([]*domain.AlertRecord, error)
}

// BuyEventStore provides access to buy_events analytics storage.
type BuyEventStore interface {
	// InsertBulk appends buy records. An empty batch is a no-op.
	InsertBulk(ctx context.Context, records []*domain.BuyRecord) error

	// GetByTimeRange retrieves records that occurred within [start, end] (inclusive),
	// ordered by occurred_at ASC.
	GetByTimeRange(ctx context.Context, start, end time.Time) ([]*domain.BuyRecord, error)
}
