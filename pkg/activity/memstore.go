package activity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned by MemStore.Get for an unknown event id.
var ErrNotFound = errors.New("event not found")

// MemStore is an in-memory Store, used by the memory driver and in tests.
type MemStore struct {
	mu     sync.RWMutex
	events []Event
	now    func() time.Time
}

// NewMemStore creates an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{now: time.Now}
}

// EnsureTable is a no-op.
func (s *MemStore) EnsureTable(context.Context) error { return nil }

// Append stores a new event linked to the previous one.
func (s *MemStore) Append(_ context.Context, eventType, actor, taskID string, content map[string]any) (*Event, error) {
	if content == nil {
		content = map[string]any{}
	}
	contentJSON, err := json.Marshal(content)
	if err != nil {
		return nil, fmt.Errorf("marshal content: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prevHash := ""
	if n := len(s.events); n > 0 {
		prevHash = s.events[n-1].Hash
	}
	now := s.now().UTC().Truncate(time.Microsecond)
	id := uuid.Must(uuid.NewV7()).String()
	e := Event{
		ID:        id,
		Type:      eventType,
		Timestamp: now,
		Actor:     actor,
		TaskID:    taskID,
		Content:   content,
		Hash:      computeHash(prevHash, id, eventType, actor, taskID, now, contentJSON),
		PrevHash:  prevHash,
	}
	s.events = append(s.events, e)
	return &e, nil
}

// Get retrieves a single event by ID.
func (s *MemStore) Get(_ context.Context, id string) (*Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.events {
		if s.events[i].ID == id {
			e := s.events[i]
			return &e, nil
		}
	}
	return nil, fmt.Errorf("get event %s: %w", id, ErrNotFound)
}

// Recent returns the most recent events, newest first.
func (s *MemStore) Recent(_ context.Context, limit int) ([]Event, error) {
	return s.newestFirst(limit, func(*Event) bool { return true }), nil
}

// ByTask returns the events of one task, newest first.
func (s *MemStore) ByTask(_ context.Context, taskID string, limit int) ([]Event, error) {
	return s.newestFirst(limit, func(e *Event) bool { return e.TaskID == taskID }), nil
}

// Since returns events appended after afterID, oldest first.
func (s *MemStore) Since(_ context.Context, afterID string, limit int) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []Event{}
	found := false
	for _, e := range s.events {
		if found && len(out) < limit {
			out = append(out, e)
		}
		if e.ID == afterID {
			found = true
		}
	}
	return out, nil
}

// Count returns the total number of events.
func (s *MemStore) Count(context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events), nil
}

// VerifyChain checks every link of the chain in append order.
func (s *MemStore) VerifyChain(context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	prevHash := ""
	for i := range s.events {
		e := &s.events[i]
		contentJSON, err := json.Marshal(e.Content)
		if err != nil {
			return fmt.Errorf("verify chain row %d: %w", i, err)
		}
		if err := verifyLink(i, e, prevHash, contentJSON); err != nil {
			return err
		}
		prevHash = e.Hash
	}
	return nil
}

func (s *MemStore) newestFirst(limit int, keep func(*Event) bool) []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []Event{}
	for i := len(s.events) - 1; i >= 0 && len(out) < limit; i-- {
		if keep(&s.events[i]) {
			out = append(out, s.events[i])
		}
	}
	return out
}
