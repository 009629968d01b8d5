// Package pgtest starts a throwaway Postgres for integration tests.
package pgtest

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/your-org/storefront-backend/internal/infrastructure/database/postgres"
	"gorm.io/gorm"
)

// New starts postgres:16-alpine, migrates every model and returns the handle.
// The container is terminated when t finishes. Skipped under -short.
func New(t *testing.T) *gorm.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres integration test in short mode")
	}

	ctx := context.Background()
	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("testdb"),
		tcpostgres.WithUsername("testuser"),
		tcpostgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	log := Logger()
	conn, err := postgres.Open(dsn, postgres.PoolConfig{MaxOpenConns: 20}, log)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	migration := postgres.NewMigration(conn.GetDB(), log)
	require.NoError(t, migration.RunAutoMigrations(ctx))
	require.NoError(t, migration.CreateIndexes(ctx))

	return conn.GetDB()
}

// Logger returns a logger that discards output.
func Logger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
