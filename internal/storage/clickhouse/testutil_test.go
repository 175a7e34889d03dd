package clickhouse_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	chstore "solana-buy-alert/internal/storage/clickhouse"
	"solana-buy-alert/internal/storage/migrations"
)

// newTestConn starts a disposable ClickHouse and returns a connection to a
// fresh analytics database created by the migration runner.
func newTestConn(t *testing.T) *chstore.Conn {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping clickhouse integration test in short mode")
	}

	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "clickhouse/clickhouse-server:24.3-alpine",
			ExposedPorts: []string{"9000/tcp"},
			Env: map[string]string{
				"CLICKHOUSE_USER":     "buyalert",
				"CLICKHOUSE_PASSWORD": "buyalert",
			},
			WaitingFor: wait.ForListeningPort("9000/tcp").WithStartupTimeout(90 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err, "failed to start clickhouse container")
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	endpoint, err := container.PortEndpoint(ctx, "9000/tcp", "")
	require.NoError(t, err)

	dsn := fmt.Sprintf("clickhouse://buyalert:buyalert@%s/analytics", endpoint)
	conn, err := migrations.RunClickhouseMigrations(ctx, dsn)
	require.NoError(t, err, "failed to apply migrations")
	t.Cleanup(func() { conn.Close() })

	return conn
}
