package task

import (
	"context"
	"time"
)

// Task is a feed item owned by one user, carrying its like ledger and
// comment thread as embedded sub-collections.
type Task struct {
	ID       string    `json:"id"`
	Text     string    `json:"text"`
	Name     string    `json:"name"`
	Avatar   string    `json:"avatar"`
	User     string    `json:"user"` // owner, always the authenticated creator
	Date     time.Time `json:"date"`
	Likes    Ledger    `json:"likes"`
	Comments Thread    `json:"comments"`
}

// Draft is the client-supplied content of a task or comment. It has no
// owner field: ownership comes from the authenticated caller only.
type Draft struct {
	Text   string `json:"text"`
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
}

// Clone returns a deep copy of t.
func (t *Task) Clone() *Task {
	cp := *t
	cp.Likes = t.Likes.Clone()
	cp.Comments = t.Comments.Clone()
	return &cp
}

// Store is the contract for task persistence.
//
// Update and Delete are atomic per task id: the callback observes the
// current record and its decision is applied without any interleaving
// write to the same task. A callback error aborts the operation and is
// returned unchanged. Missing tasks yield ErrNotFound.
type Store interface {
	Create(ctx context.Context, t *Task) error
	Get(ctx context.Context, id string) (*Task, error)
	List(ctx context.Context) ([]Task, error)
	Update(ctx context.Context, id string, fn func(*Task) error) (*Task, error)
	Delete(ctx context.Context, id string, check func(*Task) error) error
	Count(ctx context.Context) (int, error)
	EnsureTable(ctx context.Context) error
}

// Recorder receives engagement activity after a successful operation.
type Recorder interface {
	Record(ctx context.Context, eventType, actor, taskID string, content map[string]any)
}
