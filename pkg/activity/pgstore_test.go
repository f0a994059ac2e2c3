package activity

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPgStoreChain(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	s := NewPgStore(pool)
	require.NoError(t, s.EnsureTable(ctx))
	_, err = pool.Exec(ctx, `TRUNCATE activity`)
	require.NoError(t, err)

	e1, err := s.Append(ctx, "task.created", "U1", "T1", map[string]any{"text": "hello", "n": 2})
	require.NoError(t, err)
	e2, err := s.Append(ctx, "task.liked", "U2", "T1", nil)
	require.NoError(t, err)
	assert.Equal(t, e1.Hash, e2.PrevHash)

	require.NoError(t, s.VerifyChain(ctx))

	got, err := s.Get(ctx, e1.ID)
	require.NoError(t, err)
	assert.Equal(t, "hello", got.Content["text"])

	recent, err := s.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, e2.ID, recent[0].ID)

	since, err := s.Since(ctx, e1.ID, 10)
	require.NoError(t, err)
	require.Len(t, since, 1)
	assert.Equal(t, e2.ID, since[0].ID)

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}
