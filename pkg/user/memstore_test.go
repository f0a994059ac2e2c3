package user

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterIsIdempotentOnEmail(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()

	a, err := s.Register(ctx, "Alice", "Alice@Example.com ", "a.png")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", a.Email)

	again, err := s.Register(ctx, "Alice Two", "alice@example.com", "")
	require.NoError(t, err)
	assert.Equal(t, a.ID, again.ID)
	assert.Equal(t, "Alice", again.Name)

	b, err := s.Register(ctx, "Bob", "bob@example.com", "")
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)

	users, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, a.ID, users[0].ID)

	got, err := s.Get(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "Bob", got.Name)

	_, err = s.Get(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRegisterRejectsBadInput(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()

	_, err := s.Register(ctx, " ", "x@example.com", "")
	assert.ErrorIs(t, err, ErrNameRequired)

	_, err = s.Register(ctx, "X", "not-an-email", "")
	assert.ErrorIs(t, err, ErrInvalidEmail)

	_, err = s.Register(ctx, "X", "X <x@example.com>", "")
	assert.ErrorIs(t, err, ErrInvalidEmail)
}

func TestConcurrentRegisterSameEmail(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()

	ids := make([]string, 16)
	var wg sync.WaitGroup
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			u, err := s.Register(ctx, "Carol", "carol@example.com", "")
			if err == nil {
				ids[i] = u.ID
			}
		}(i)
	}
	wg.Wait()

	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
	users, _ := s.List(ctx)
	assert.Len(t, users, 1)
}
