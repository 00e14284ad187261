package repository

import (
	"context"
	"io"
	"log/slog"
	"math"
	"os"
	"testing"

	"github.com/Shivanand-hulikatti/academic-event-manager/internal/config"
	"github.com/Shivanand-hulikatti/academic-event-manager/internal/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestPostgresStore_Contract runs against a live server and is skipped unless
// TEST_DB_HOST is set. It drops the events table it works on.
func TestPostgresStore_Contract(t *testing.T) {
	host := os.Getenv("TEST_DB_HOST")
	if host == "" {
		t.Skip("TEST_DB_HOST not set")
	}
	if testing.Short() {
		t.Skip("skipping postgres test in short mode")
	}

	cfg := config.Default().Database
	cfg.Host = host
	ctx := context.Background()

	pool, err := database.NewPool(ctx, cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	s := NewPostgresStore(pool)
	t.Cleanup(func() { s.Close() })

	_, err = pool.Exec(ctx, `DROP TABLE IF EXISTS events`)
	require.NoError(t, err)
	require.NoError(t, s.Initialize(ctx))

	exerciseStore(t, s)

	big := sampleEvents()[0]
	big.ID = math.MaxInt32
	require.NoError(t, s.Append(ctx, big))
	_, err = s.Create(ctx, sampleInput("Overflow"))
	assert.ErrorIs(t, err, ErrIDsExhausted)
}
