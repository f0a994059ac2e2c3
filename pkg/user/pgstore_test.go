package user

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPgStoreRegister(t *testing.T) {
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
	_, err = pool.Exec(ctx, `TRUNCATE users`)
	require.NoError(t, err)

	a, err := s.Register(ctx, "Alice", "alice@example.com", "a.png")
	require.NoError(t, err)
	again, err := s.Register(ctx, "Alice", "ALICE@example.com", "")
	require.NoError(t, err)
	assert.Equal(t, a.ID, again.ID)

	got, err := s.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "a.png", got.Avatar)

	_, err = s.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	users, err := s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}
