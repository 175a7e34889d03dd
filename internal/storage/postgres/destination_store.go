package postgres

import (
	"context"
	"fmt"

	"solana-buy-alert/internal/storage"
)

// DestinationStore implements storage.DestinationStore using PostgreSQL.
type DestinationStore struct {
	pool *Pool
}

// NewDestinationStore creates a new DestinationStore.
func NewDestinationStore(pool *Pool) *DestinationStore {
	return &DestinationStore{pool: pool}
}

// Compile-time interface check.
var _ storage.DestinationStore = (*DestinationStore)(nil)

// List returns all destination IDs in ascending order.
func (s *DestinationStore) List(ctx context.Context) ([]int64, error) {
	query := `SELECT chat_id FROM alert_destinations ORDER BY chat_id ASC`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list destinations: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan destination: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate destinations: %w", err)
	}
	return ids, nil
}

// Add registers a destination. Adding an existing ID is a no-op.
func (s *DestinationStore) Add(ctx context.Context, id int64) error {
	if id == 0 {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO alert_destinations (chat_id)
		VALUES ($1)
		ON CONFLICT (chat_id) DO NOTHING
	`

	if _, err := s.pool.Exec(ctx, query, id); err != nil {
		return fmt.Errorf("add destination: %w", err)
	}
	return nil
}

// Remove unregisters a destination. Returns ErrNotFound if not registered.
func (s *DestinationStore) Remove(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM alert_destinations WHERE chat_id = $1`, id)
	if err != nil {
		return fmt.Errorf("remove destination: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}
