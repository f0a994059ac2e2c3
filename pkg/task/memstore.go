package task

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
)

// MemStore is an in-process Store. One lock serializes writers, which
// trivially satisfies per-task atomicity; readers get deep copies.
type MemStore struct {
	mu    sync.RWMutex
	tasks map[string]*Task
}

// NewMemStore creates an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{tasks: map[string]*Task{}}
}

// EnsureTable is a no-op.
func (s *MemStore) EnsureTable(context.Context) error { return nil }

// Create stores a copy of t.
func (s *MemStore) Create(_ context.Context, t *Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[t.ID]; ok {
		return fmt.Errorf("create task %s: duplicate id", t.ID)
	}
	s.tasks[t.ID] = t.Clone()
	return nil
}

// Get returns a copy of the task.
func (s *MemStore) Get(_ context.Context, id string) (*Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tasks[id]
	if !ok {
		return nil, fmt.Errorf("get task %s: %w", id, ErrNotFound)
	}
	return t.Clone(), nil
}

// List returns copies of all tasks, newest first.
func (s *MemStore) List(context.Context) ([]Task, error) {
	s.mu.RLock()
	tasks := make([]Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		tasks = append(tasks, *t.Clone())
	}
	s.mu.RUnlock()
	sortNewestFirst(tasks)
	return tasks, nil
}

// Update applies fn to a copy of the task and stores it when fn succeeds.
func (s *MemStore) Update(_ context.Context, id string, fn func(*Task) error) (*Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.tasks[id]
	if !ok {
		return nil, fmt.Errorf("update task %s: %w", id, ErrNotFound)
	}
	next := cur.Clone()
	if err := fn(next); err != nil {
		return nil, err
	}
	s.tasks[id] = next
	return next.Clone(), nil
}

// Delete removes the task when check allows it.
func (s *MemStore) Delete(_ context.Context, id string, check func(*Task) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.tasks[id]
	if !ok {
		return fmt.Errorf("delete task %s: %w", id, ErrNotFound)
	}
	if check != nil {
		if err := check(cur.Clone()); err != nil {
			return err
		}
	}
	delete(s.tasks, id)
	return nil
}

// Count returns the number of tasks.
func (s *MemStore) Count(context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tasks), nil
}

// sortNewestFirst orders by date descending, then id descending.
func sortNewestFirst(tasks []Task) {
	slices.SortFunc(tasks, func(a, b Task) int {
		if c := b.Date.Compare(a.Date); c != 0 {
			return c
		}
		return strings.Compare(b.ID, a.ID)
	})
}
