package user

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemStore is an in-memory user store.
type MemStore struct {
	mu      sync.RWMutex
	byID    map[string]*User
	byEmail map[string]string
	order   []string
}

// NewMemStore creates an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{byID: map[string]*User{}, byEmail: map[string]string{}}
}

// EnsureTable is a no-op.
func (s *MemStore) EnsureTable(context.Context) error { return nil }

// Register creates or returns an existing user. Idempotent.
func (s *MemStore) Register(_ context.Context, name, email, avatar string) (*User, error) {
	name, email, err := Normalize(name, email)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.byEmail[email]; ok {
		u := *s.byID[id]
		return &u, nil
	}
	u := &User{
		ID:        uuid.Must(uuid.NewV7()).String(),
		Name:      name,
		Email:     email,
		Avatar:    avatar,
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}
	s.byID[u.ID] = u
	s.byEmail[email] = u.ID
	s.order = append(s.order, u.ID)
	out := *u
	return &out, nil
}

// Get returns a user by ID.
func (s *MemStore) Get(_ context.Context, id string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.byID[id]
	if !ok {
		return nil, fmt.Errorf("get user %s: %w", id, ErrNotFound)
	}
	out := *u
	return &out, nil
}

// ByEmail returns a user by email.
func (s *MemStore) ByEmail(ctx context.Context, email string) (*User, error) {
	s.mu.RLock()
	id, ok := s.byEmail[email]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("user by email %s: %w", email, ErrNotFound)
	}
	return s.Get(ctx, id)
}

// List returns all users in registration order.
func (s *MemStore) List(context.Context) ([]User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	users := make([]User, 0, len(s.order))
	for _, id := range s.order {
		users = append(users, *s.byID[id])
	}
	return users, nil
}
