package task

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgStore is a PostgreSQL-backed task store. Likes and comments live in
// JSONB columns of the task row; read-modify-write runs in a transaction
// holding the row lock.
type PgStore struct {
	pool *pgxpool.Pool
}

// NewPgStore creates a PgStore.
func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

const taskColumns = `id, text, name, avatar, user_id, date, likes, comments`

// EnsureTable creates the tasks table if it doesn't exist.
func (s *PgStore) EnsureTable(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS tasks (
			id       TEXT PRIMARY KEY,
			text     TEXT NOT NULL,
			name     TEXT NOT NULL DEFAULT '',
			avatar   TEXT NOT NULL DEFAULT '',
			user_id  TEXT NOT NULL,
			date     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			likes    JSONB NOT NULL DEFAULT '[]',
			comments JSONB NOT NULL DEFAULT '[]'
		)`)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `CREATE INDEX IF NOT EXISTS idx_tasks_date ON tasks(date DESC, id DESC)`)
	return err
}

// Create inserts a new task.
func (s *PgStore) Create(ctx context.Context, t *Task) error {
	likesJSON, commentsJSON, err := marshalEmbedded(t)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO tasks (`+taskColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7::jsonb, $8::jsonb)`,
		t.ID, t.Text, t.Name, t.Avatar, t.User, t.Date, string(likesJSON), string(commentsJSON))
	if err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

// Get retrieves a single task by ID.
func (s *PgStore) Get(ctx context.Context, id string) (*Task, error) {
	t, err := scanTask(s.pool.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("get task %s: %w", id, notFound(err))
	}
	return t, nil
}

// List returns all tasks, newest first.
func (s *PgStore) List(ctx context.Context) ([]Task, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+taskColumns+` FROM tasks ORDER BY date DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	tasks := []Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration: %w", err)
	}
	return tasks, nil
}

// Update locks the task row, applies fn and writes back the embedded
// collections in the same transaction.
func (s *PgStore) Update(ctx context.Context, id string, fn func(*Task) error) (*Task, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	t, err := scanTask(tx.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, fmt.Errorf("update task %s: %w", id, notFound(err))
	}
	if err := fn(t); err != nil {
		return nil, err
	}

	likesJSON, commentsJSON, err := marshalEmbedded(t)
	if err != nil {
		return nil, err
	}
	_, err = tx.Exec(ctx, `UPDATE tasks SET likes = $1::jsonb, comments = $2::jsonb WHERE id = $3`,
		string(likesJSON), string(commentsJSON), id)
	if err != nil {
		return nil, fmt.Errorf("update task %s: %w", id, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit task %s: %w", id, err)
	}
	return t, nil
}

// Delete locks the task row, runs check and deletes it in the same
// transaction.
func (s *PgStore) Delete(ctx context.Context, id string, check func(*Task) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	t, err := scanTask(tx.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return fmt.Errorf("delete task %s: %w", id, notFound(err))
	}
	if check != nil {
		if err := check(t); err != nil {
			return err
		}
	}
	if _, err := tx.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete task %s: %w", id, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit delete %s: %w", id, err)
	}
	return nil
}

// Count returns total task count.
func (s *PgStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM tasks`).Scan(&n)
	return n, err
}

func marshalEmbedded(t *Task) (likes, comments []byte, err error) {
	likes, err = json.Marshal(t.Likes)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal likes: %w", err)
	}
	comments, err = json.Marshal(t.Comments)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal comments: %w", err)
	}
	return likes, comments, nil
}

func scanTask(row pgx.Row) (*Task, error) {
	var t Task
	var likesJSON, commentsJSON []byte
	if err := row.Scan(&t.ID, &t.Text, &t.Name, &t.Avatar, &t.User, &t.Date, &likesJSON, &commentsJSON); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(likesJSON, &t.Likes); err != nil {
		return nil, fmt.Errorf("unmarshal likes: %w", err)
	}
	if err := json.Unmarshal(commentsJSON, &t.Comments); err != nil {
		return nil, fmt.Errorf("unmarshal comments: %w", err)
	}
	if t.Comments == nil {
		t.Comments = Thread{}
	}
	t.Date = t.Date.UTC()
	return &t, nil
}

func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
