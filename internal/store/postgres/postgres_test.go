package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"

	"github.com/mdubravic83/POtranslate/internal/store/storetest"
)

func TestIntegrationPostgresStore(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16",
		postgres.WithDatabase("test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).WithStartupTimeout(30*time.Second)),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Fatalf("failed to terminate pgContainer: %s", err)
		}
	})

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	logger, err := zap.NewDevelopment()
	require.NoError(t, err)

	s, err := New(ctx, dsn, WithLogger(logger))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = s.Close(ctx)
	})

	storetest.Run(t, s)

	t.Run("migrations are idempotent", func(t *testing.T) {
		again, err := New(ctx, dsn)
		require.NoError(t, err)
		defer again.Close(ctx)

		list, err := again.ListJobs(ctx, 0)
		require.NoError(t, err)
		assert.Len(t, list, 4)
	})

	t.Run("list omits entries", func(t *testing.T) {
		var doc string
		err := s.pool.QueryRow(ctx, `SELECT (doc - 'entries')::text FROM translations WHERE id = 'job-1'`).Scan(&doc)
		require.NoError(t, err)
		assert.NotContains(t, doc, "entries")
	})
}
