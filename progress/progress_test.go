package progress

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupPostgresContainer(t *testing.T) (*pgxpool.Pool, func()) {
	t.Helper()
	if os.Getenv("INDEXER_SKIP_CONTAINER_TESTS") != "" {
		t.Skip("container tests disabled")
	}
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:18.1-bookworm",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)

	cleanup := func() {
		pool.Close()
		_ = container.Terminate(ctx)
	}
	return pool, cleanup
}

func TestStore_GetOnFreshIDReturnsNotOK(t *testing.T) {
	pool, cleanup := setupPostgresContainer(t)
	defer cleanup()
	ctx := context.Background()

	store := NewStore(pool)
	require.NoError(t, store.EnsureSchema(ctx))

	_, ok, err := store.Get(ctx, "default")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestUpsert_IsMonotonicNonDecreasing(t *testing.T) {
	pool, cleanup := setupPostgresContainer(t)
	defer cleanup()
	ctx := context.Background()

	store := NewStore(pool)
	require.NoError(t, store.EnsureSchema(ctx))

	tx, err := pool.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, Upsert(ctx, tx, "default", 100))
	require.NoError(t, tx.Commit(ctx))

	tx, err = pool.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, Upsert(ctx, tx, "default", 50))
	require.NoError(t, tx.Commit(ctx))

	height, ok, err := store.Get(ctx, "default")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint64(100), height)
}
