package task

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPgTestStore(t *testing.T) *PgStore {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	store := NewPgStore(pool)
	require.NoError(t, store.EnsureTable(ctx))
	_, err = pool.Exec(ctx, `TRUNCATE tasks`)
	require.NoError(t, err)
	return store
}

func TestPgStoreRoundTrip(t *testing.T) {
	store := newPgTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	tk := &Task{ID: "t1", Text: "hello", User: "U1", Date: now, Likes: NewLedger(), Comments: Thread{}}
	require.NoError(t, store.Create(ctx, tk))

	updated, err := store.Update(ctx, "t1", func(t *Task) error {
		t.Likes.Add("U2")
		t.Comments.Prepend(Comment{ID: "c1", Text: "nice", User: "U2", Date: now})
		return nil
	})
	require.NoError(t, err)
	assert.True(t, updated.Likes.Has("U2"))

	got, err := store.Get(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, []Like{{User: "U2"}}, got.Likes.Likes())
	require.Len(t, got.Comments, 1)
	assert.Equal(t, "c1", got.Comments[0].ID)
	assert.True(t, now.Equal(got.Date))

	err = store.Delete(ctx, "t1", func(*Task) error { return ErrUnauthorized })
	assert.ErrorIs(t, err, ErrUnauthorized)
	require.NoError(t, store.Delete(ctx, "t1", nil))

	_, err = store.Get(ctx, "t1")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = store.Update(ctx, "t1", func(*Task) error { return nil })
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPgStoreListOrder(t *testing.T) {
	store := newPgTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		require.NoError(t, store.Create(ctx, &Task{ID: id, Text: id, User: "U1", Date: base.Add(time.Duration(i) * time.Minute)}))
	}
	list, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "c", list[0].ID)
	assert.Equal(t, "a", list[2].ID)
}
