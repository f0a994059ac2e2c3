package task

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"taskfeed/internal/identity"
)

// Activity event types recorded by Service.
const (
	EventTaskCreated    = "task.created"
	EventTaskDeleted    = "task.deleted"
	EventTaskLiked      = "task.liked"
	EventTaskUnliked    = "task.unliked"
	EventCommentAdded   = "comment.added"
	EventCommentRemoved = "comment.removed"
)

// Service implements the task, like and comment operations on top of a
// Store.
type Service struct {
	store     Store
	validator Validator
	recorder  Recorder
	log       logrus.FieldLogger
	now       func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithValidator replaces the default ContentValidator.
func WithValidator(v Validator) Option {
	return func(s *Service) { s.validator = v }
}

// WithRecorder records activity after each successful mutation.
func WithRecorder(r Recorder) Option {
	return func(s *Service) { s.recorder = r }
}

// WithLogger sets the logger used for store failures.
func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Service) { s.log = l }
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a Service.
func NewService(store Store, opts ...Option) *Service {
	s := &Service{
		store:     store,
		validator: ContentValidator{},
		log:       logrus.StandardLogger(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

func newID() string {
	return uuid.Must(uuid.NewV7()).String()
}

func (s *Service) validate(d Draft) error {
	if ok, errs := s.validator.Validate(d); !ok {
		return &ValidationError{Errors: errs}
	}
	return nil
}

// fail passes domain outcomes through and turns anything else into
// ErrStoreUnavailable, logging it.
func (s *Service) fail(op, taskID string, err error) error {
	if isDomainError(err) {
		return err
	}
	s.log.WithError(err).WithFields(logrus.Fields{
		"component": "task_service",
		"op":        op,
		"task_id":   taskID,
	}).Error("task store unavailable")
	return fmt.Errorf("%w: %s: %w", ErrStoreUnavailable, op, err)
}

func (s *Service) record(ctx context.Context, eventType string, caller identity.Caller, taskID string, content map[string]any) {
	if s.recorder == nil {
		return
	}
	s.recorder.Record(ctx, eventType, caller.ID(), taskID, content)
}

// CreateTask validates d and stores a new task owned by caller.
func (s *Service) CreateTask(ctx context.Context, d Draft, caller identity.Caller) (*Task, error) {
	if caller.IsZero() {
		return nil, ErrUnauthenticated
	}
	if err := s.validate(d); err != nil {
		return nil, err
	}
	t := &Task{
		ID:       newID(),
		Text:     d.Text,
		Name:     d.Name,
		Avatar:   d.Avatar,
		User:     caller.ID(),
		Date:     s.timestamp(),
		Likes:    NewLedger(),
		Comments: Thread{},
	}
	if err := s.store.Create(ctx, t); err != nil {
		return nil, s.fail("create", t.ID, err)
	}
	s.record(ctx, EventTaskCreated, caller, t.ID, map[string]any{"text": t.Text})
	return t, nil
}

// ListTasks returns every task, newest first.
func (s *Service) ListTasks(ctx context.Context) ([]Task, error) {
	tasks, err := s.store.List(ctx)
	if err != nil {
		return nil, s.fail("list", "", err)
	}
	if tasks == nil {
		tasks = []Task{}
	}
	return tasks, nil
}

// GetTask returns a single task.
func (s *Service) GetTask(ctx context.Context, id string) (*Task, error) {
	t, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, s.fail("get", id, err)
	}
	return t, nil
}

// DeleteTask removes a task owned by caller. The ownership check runs
// inside the store's atomic delete, before anything is removed.
func (s *Service) DeleteTask(ctx context.Context, id string, caller identity.Caller) error {
	if caller.IsZero() {
		return ErrUnauthenticated
	}
	err := s.store.Delete(ctx, id, func(t *Task) error {
		if t.User != caller.ID() {
			return ErrUnauthorized
		}
		return nil
	})
	if err != nil {
		return s.fail("delete", id, err)
	}
	s.record(ctx, EventTaskDeleted, caller, id, nil)
	return nil
}

// AddLike puts caller at the front of the task's likes.
func (s *Service) AddLike(ctx context.Context, id string, caller identity.Caller) (*Task, error) {
	if caller.IsZero() {
		return nil, ErrUnauthenticated
	}
	t, err := s.store.Update(ctx, id, func(t *Task) error {
		if !t.Likes.Add(caller.ID()) {
			return ErrAlreadyLiked
		}
		return nil
	})
	if err != nil {
		return nil, s.fail("like", id, err)
	}
	s.record(ctx, EventTaskLiked, caller, id, nil)
	return t, nil
}

// RemoveLike drops caller's like from the task.
func (s *Service) RemoveLike(ctx context.Context, id string, caller identity.Caller) (*Task, error) {
	if caller.IsZero() {
		return nil, ErrUnauthenticated
	}
	t, err := s.store.Update(ctx, id, func(t *Task) error {
		if !t.Likes.Remove(caller.ID()) {
			return ErrNotLiked
		}
		return nil
	})
	if err != nil {
		return nil, s.fail("unlike", id, err)
	}
	s.record(ctx, EventTaskUnliked, caller, id, nil)
	return t, nil
}

// AddComment validates d and prepends it to the task's thread.
func (s *Service) AddComment(ctx context.Context, id string, d Draft, caller identity.Caller) (*Task, error) {
	if caller.IsZero() {
		return nil, ErrUnauthenticated
	}
	if err := s.validate(d); err != nil {
		return nil, err
	}
	c := Comment{
		ID:     newID(),
		Text:   d.Text,
		Name:   d.Name,
		Avatar: d.Avatar,
		User:   caller.ID(),
		Date:   s.timestamp(),
	}
	t, err := s.store.Update(ctx, id, func(t *Task) error {
		t.Comments.Prepend(c)
		return nil
	})
	if err != nil {
		return nil, s.fail("comment", id, err)
	}
	s.record(ctx, EventCommentAdded, caller, id, map[string]any{"comment_id": c.ID})
	return t, nil
}

// RemoveComment deletes a comment from the task's thread. Any
// authenticated caller may remove any comment.
func (s *Service) RemoveComment(ctx context.Context, id, commentID string, caller identity.Caller) (*Task, error) {
	if caller.IsZero() {
		return nil, ErrUnauthenticated
	}
	t, err := s.store.Update(ctx, id, func(t *Task) error {
		if !t.Comments.Remove(commentID) {
			return ErrCommentNotFound
		}
		return nil
	})
	if err != nil {
		return nil, s.fail("uncomment", id, err)
	}
	s.record(ctx, EventCommentRemoved, caller, id, map[string]any{"comment_id": commentID})
	return t, nil
}

// Count returns the number of stored tasks.
func (s *Service) Count(ctx context.Context) (int, error) {
	n, err := s.store.Count(ctx)
	if err != nil {
		return 0, s.fail("count", "", err)
	}
	return n, nil
}
