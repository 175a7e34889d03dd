package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/shopspring/decimal"

	"solana-buy-alert/internal/domain"
	"solana-buy-alert/internal/observability"
	"solana-buy-alert/internal/storage"
)

// BuyEventStore implements storage.BuyEventStore using ClickHouse.
// Rows with the same (occurred_at, signature) collapse on merge, so
// re-inserting a buy is harmless.
type BuyEventStore struct {
	conn *Conn
}

// NewBuyEventStore creates a new BuyEventStore.
func NewBuyEventStore(conn *Conn) *BuyEventStore {
	return &BuyEventStore{conn: conn}
}

// Compile-time interface check.
var _ storage.BuyEventStore = (*BuyEventStore)(nil)

// InsertBulk appends buy records in one batch.
func (s *BuyEventStore) InsertBulk(ctx context.Context, records []*domain.BuyRecord) (err error) {
	if len(records) == 0 {
		return nil
	}
	for _, r := range records {
		if r == nil || r.Buy.Signature == "" {
			return storage.ErrInvalidInput
		}
	}

	start := time.Now()
	defer func() {
		observability.RecordDBQuery("clickhouse", "insert_buy_events", time.Since(start).Seconds(), err)
	}()

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO buy_events (
			signature, buyer_wallet, sol_spent, tokens_received, usd_value, verdict, occurred_at
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, r := range records {
		err = batch.Append(
			r.Buy.Signature, r.Buy.BuyerWallet,
			r.Buy.SOLSpent, r.Buy.TokensReceived, r.Buy.USDValue,
			string(r.Verdict), r.Buy.OccurredAt.UTC(),
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByTimeRange retrieves records that occurred within [start, end], ordered by time ASC.
func (s *BuyEventStore) GetByTimeRange(ctx context.Context, start, end time.Time) ([]*domain.BuyRecord, error) {
	query := `
		SELECT signature, buyer_wallet, sol_spent, tokens_received, usd_value, verdict, occurred_at
		FROM buy_events FINAL
		WHERE occurred_at >= ? AND occurred_at <= ?
		ORDER BY occurred_at ASC, signature ASC
	`

	rows, err := s.conn.Query(ctx, query, start.UTC(), end.UTC())
	if err != nil {
		return nil, fmt.Errorf("query by time range: %w", err)
	}
	defer rows.Close()

	return scanBuyEvents(rows)
}

func scanBuyEvents(rows driver.Rows) ([]*domain.BuyRecord, error) {
	var result []*domain.BuyRecord
	for rows.Next() {
		var (
			r                domain.BuyRecord
			sol, tokens, usd decimal.Decimal
			verdict          string
		)
		if err := rows.Scan(
			&r.Buy.Signature, &r.Buy.BuyerWallet,
			&sol, &tokens, &usd,
			&verdict, &r.Buy.OccurredAt,
		); err != nil {
			return nil, fmt.Errorf("scan buy event: %w", err)
		}
		r.Buy.SOLSpent = sol
		r.Buy.TokensReceived = tokens
		r.Buy.USDValue = usd
		r.Verdict = domain.Verdict(verdict)
		result = append(result, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate buy events: %w", err)
	}
	return result, nil
}
