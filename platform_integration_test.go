//go:build integration

package convergo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"convergo/pkg/testutil/containers"
)

// TestConnectAndHealth wires the platform against a real Postgres with
// Redis and Kafka left unconfigured, then checks the health probe and
// shutdown.
func TestConnectAndHealth(t *testing.T) {
	pg := containers.GetManager().GetPostgres(t)
	ctx := context.Background()

	cfg := Config{PostgresURL: pg.DSN, BatchSize: 100}
	p, err := Connect(cfg, nil, nil)
	require.NoError(t, err)

	require.NoError(t, p.Health(ctx))
	require.NotNil(t, p.Service)
	require.NotNil(t, p.Runner)

	require.NoError(t, p.Close())
	require.Error(t, p.Health(ctx))
}
