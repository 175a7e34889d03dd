package postgres_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"

	"solana-buy-alert/internal/storage/migrations"
	pgstore "solana-buy-alert/internal/storage/postgres"
)

// newTestPool starts a disposable PostgreSQL, applies the embedded
// migrations and returns a pool. Both are released by t.Cleanup.
func newTestPool(t *testing.T) *pgstore.Pool {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping postgres integration test in short mode")
	}

	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("buyalert"),
		tcpostgres.WithUsername("buyalert"),
		tcpostgres.WithPassword("buyalert"),
		tcpostgres.BasicWaitStrategies(),
	)
	require.NoError(t, err, "failed to start postgres container")
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := pgstore.NewPool(ctx, dsn)
	require.NoError(t, err, "failed to create pool")
	t.Cleanup(pool.Close)

	require.NoError(t, migrations.RunPostgresMigrations(ctx, pool))
	// Migrations are idempotent.
	require.NoError(t, migrations.RunPostgresMigrations(ctx, pool))

	return pool
}
