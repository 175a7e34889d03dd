package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-buy-alert/internal/domain"
	"solana-buy-alert/internal/storage"
	pgstore "solana-buy-alert/internal/storage/postgres"
)

func testAlert(sig string, sentAt time.Time) *domain.AlertRecord {
	return &domain.AlertRecord{
		Signature:      sig,
		BuyerWallet:    "9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM",
		USDValue:       decimal.RequireFromString("1500.123456789"),
		SOLSpent:       decimal.RequireFromString("10.000000001"),
		TokensReceived: decimal.RequireFromString("750000.5"),
		Destinations:   3,
		Delivered:      2,
		SentAt:         sentAt,
	}
}

func TestAlertStore_InsertAndGet(t *testing.T) {
	pool := newTestPool(t)

	store := pgstore.NewAlertStore(pool)
	ctx := context.Background()
	sentAt := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	record := testAlert("sig-001", sentAt)
	require.NoError(t, store.Insert(ctx, record))

	got, err := store.GetBySignature(ctx, "sig-001")
	require.NoError(t, err)

	assert.Equal(t, record.Signature, got.Signature)
	assert.Equal(t, record.BuyerWallet, got.BuyerWallet)
	assert.True(t, record.USDValue.Equal(got.USDValue), "usd %s", got.USDValue)
	assert.True(t, record.SOLSpent.Equal(got.SOLSpent), "sol %s", got.SOLSpent)
	assert.True(t, record.TokensReceived.Equal(got.TokensReceived))
	assert.Equal(t, 3, got.Destinations)
	assert.Equal(t, 2, got.Delivered)
	assert.True(t, sentAt.Equal(got.SentAt))
}

func TestAlertStore_Errors(t *testing.T) {
	pool := newTestPool(t)

	store := pgstore.NewAlertStore(pool)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, store.Insert(ctx, testAlert("sig-dup", now)))
	assert.ErrorIs(t, store.Insert(ctx, testAlert("sig-dup", now)), storage.ErrDuplicateKey)
	assert.ErrorIs(t, store.Insert(ctx, &domain.AlertRecord{}), storage.ErrInvalidInput)

	_, err := store.GetBySignature(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestAlertStore_GetByTimeRange(t *testing.T) {
	pool := newTestPool(t)

	store := pgstore.NewAlertStore(pool)
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, store.Insert(ctx, testAlert("c", base.Add(2*time.Minute))))
	require.NoError(t, store.Insert(ctx, testAlert("a", base)))
	require.NoError(t, store.Insert(ctx, testAlert("b", base.Add(time.Minute))))
	require.NoError(t, store.Insert(ctx, testAlert("late", base.Add(24*time.Hour))))

	got, err := store.GetByTimeRange(ctx, base, base.Add(2*time.Minute))
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "a", got[0].Signature)
	assert.Equal(t, "b", got[1].Signature)
	assert.Equal(t, "c", got[2].Signature)
}
