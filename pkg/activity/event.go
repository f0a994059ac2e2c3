// Package activity keeps a hash-chained, append-only log of engagement
// activity: tasks created and deleted, likes, comments.
package activity

import (
	"context"
	"crypto/sha256"
	"fmt"
	"time"
)

// Event is a single entry of the activity log.
type Event struct {
	ID        string         `json:"id"`        // UUID v7 (time-ordered)
	Type      string         `json:"type"`      // e.g. "task.liked", "comment.added"
	Timestamp time.Time      `json:"timestamp"` // when the activity happened
	Actor     string         `json:"actor"`     // user that caused it
	TaskID    string         `json:"task_id"`
	Content   map[string]any `json:"content"`
	Hash      string         `json:"hash"`      // SHA-256 of canonical form
	PrevHash  string         `json:"prev_hash"` // hash chain link
}

// Store is the contract for activity persistence.
type Store interface {
	Append(ctx context.Context, eventType, actor, taskID string, content map[string]any) (*Event, error)
	Get(ctx context.Context, id string) (*Event, error)
	Recent(ctx context.Context, limit int) ([]Event, error)
	ByTask(ctx context.Context, taskID string, limit int) ([]Event, error)
	Since(ctx context.Context, afterID string, limit int) ([]Event, error)
	Count(ctx context.Context) (int, error)
	VerifyChain(ctx context.Context) error
	EnsureTable(ctx context.Context) error
}

// computeHash computes a SHA-256 hash for chain integrity.
func computeHash(prevHash, id, eventType, actor, taskID string, timestamp time.Time, contentJSON []byte) string {
	data := fmt.Sprintf("%s|%s|%s|%s|%s|%d|%s", prevHash, id, eventType, actor, taskID, timestamp.UnixNano(), string(contentJSON))
	h := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", h)
}
