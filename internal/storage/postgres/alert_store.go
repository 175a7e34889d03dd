package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"solana-buy-alert/internal/domain"
	"solana-buy-alert/internal/observability"
	"solana-buy-alert/internal/storage"
)

// AlertStore implements storage.AlertStore using PostgreSQL.
// Amounts are stored as NUMERIC and exchanged as text to keep them exact.
type AlertStore struct {
	pool *Pool
}

// NewAlertStore creates a new AlertStore.
func NewAlertStore(pool *Pool) *AlertStore {
	return &AlertStore{pool: pool}
}

// Compile-time interface check.
var _ storage.AlertStore = (*AlertStore)(nil)

// Insert appends a record. Returns ErrDuplicateKey if the signature was already logged.
func (s *AlertStore) Insert(ctx context.Context, r *domain.AlertRecord) error {
	if r == nil || r.Signature == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO alert_log (
			signature, buyer_wallet, usd_value, sol_spent, tokens_received,
			destinations, delivered, sent_at
		) VALUES ($1, $2, $3::numeric, $4::numeric, $5::numeric, $6, $7, $8)
	`

	start := time.Now()
	_, err := s.pool.Exec(ctx, query,
		r.Signature,
		r.BuyerWallet,
		r.USDValue.String(),
		r.SOLSpent.String(),
		r.TokensReceived.String(),
		r.Destinations,
		r.Delivered,
		r.SentAt.UTC(),
	)
	observability.RecordDBQuery("postgres", "insert_alert", time.Since(start).Seconds(), err)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert alert: %w", err)
	}
	return nil
}

// GetBySignature retrieves a record. Returns ErrNotFound if not exists.
func (s *AlertStore) GetBySignature(ctx context.Context, signature string) (*domain.AlertRecord, error) {
	query := `
		SELECT signature, buyer_wallet, usd_value::text, sol_spent::text, tokens_received::text,
		       destinations, delivered, sent_at
		FROM alert_log
		WHERE signature = $1
	`

	r, err := scanAlert(s.pool.QueryRow(ctx, query, signature))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get alert by signature: %w", err)
	}
	return r, nil
}

// GetByTimeRange retrieves records sent within [start, end], ordered by sent_at ASC.
func (s *AlertStore) GetByTimeRange(ctx context.Context, start, end time.Time) ([]*domain.AlertRecord, error) {
	query := `
		SELECT signature, buyer_wallet, usd_value::text, sol_spent::text, tokens_received::text,
		       destinations, delivered, sent_at
		FROM alert_log
		WHERE sent_at >= $1 AND sent_at <= $2
		ORDER BY sent_at ASC, signature ASC
	`

	rows, err := s.pool.Query(ctx, query, start.UTC(), end.UTC())
	if err != nil {
		return nil, fmt.Errorf("get alerts by time range: %w", err)
	}
	defer rows.Close()

	var result []*domain.AlertRecord
	for rows.Next() {
		r, err := scanAlert(rows)
		if err != nil {
			return nil, fmt.Errorf("scan alert: %w", err)
		}
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate alerts: %w", err)
	}
	return result, nil
}

func scanAlert(row pgx.Row) (*domain.AlertRecord, error) {
	var (
		r                domain.AlertRecord
		usd, sol, tokens string
	)
	if err := row.Scan(
		&r.Signature,
		&r.BuyerWallet,
		&usd,
		&sol,
		&tokens,
		&r.Destinations,
		&r.Delivered,
		&r.SentAt,
	); err != nil {
		return nil, err
	}

	var err error
	if r.USDValue, err = decimal.NewFromString(usd); err != nil {
		return nil, fmt.Errorf("parse usd_value: %w", err)
	}
	if r.SOLSpent, err = decimal.NewFromString(sol); err != nil {
		return nil, fmt.Errorf("parse sol_spent: %w", err)
	}
	if r.TokensReceived, err = decimal.NewFromString(tokens); err != nil {
		return nil, fmt.Errorf("parse tokens_received: %w", err)
	}
	return &r, nil
}
