package task

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskfeed/internal/identity"
)

var (
	u1 = identity.Trusted("U1")
	u2 = identity.Trusted("U2")
	u3 = identity.Trusted("U3")
)

// stepClock advances one second per call.
func stepClock() func() time.Time {
	var mu sync.Mutex
	cur := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		cur = cur.Add(time.Second)
		return cur
	}
}

type recorded struct {
	eventType, actor, taskID string
}

type fakeRecorder struct {
	mu     sync.Mutex
	events []recorded
}

func (r *fakeRecorder) Record(_ context.Context, eventType, actor, taskID string, _ map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, recorded{eventType, actor, taskID})
}

func newTestService(t *testing.T, opts ...Option) (*Service, *MemStore) {
	t.Helper()
	store := NewMemStore()
	logger, _ := logtest.NewNullLogger()
	opts = append([]Option{WithClock(stepClock()), WithLogger(logger)}, opts...)
	return NewService(store, opts...), store
}

func likeUsers(t *Task) []string {
	var out []string
	for _, lk := range t.Likes.Likes() {
		out = append(out, lk.User)
	}
	return out
}

func TestEndToEndScenario(t *testing.T) {
	ctx := context.Background()
	rec := &fakeRecorder{}
	svc, _ := newTestService(t, WithRecorder(rec))

	created, err := svc.CreateTask(ctx, Draft{Text: "hello", Name: "Alice", Avatar: "a.png"}, u1)
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "U1", created.User)
	assert.Equal(t, "hello", created.Text)
	assert.Equal(t, 0, created.Likes.Len())
	assert.Empty(t, created.Comments)

	liked, err := svc.AddLike(ctx, created.ID, u2)
	require.NoError(t, err)
	assert.Equal(t, []string{"U2"}, likeUsers(liked))

	_, err = svc.AddLike(ctx, created.ID, u2)
	assert.ErrorIs(t, err, ErrAlreadyLiked)

	commented, err := svc.AddComment(ctx, created.ID, Draft{Text: "nice!", Name: "Bob", Avatar: "b.png"}, u2)
	require.NoError(t, err)
	require.Len(t, commented.Comments, 1)
	assert.Equal(t, "nice!", commented.Comments[0].Text)
	assert.Equal(t, "U2", commented.Comments[0].User)
	assert.NotEmpty(t, commented.Comments[0].ID)
	assert.NotEqual(t, created.ID, commented.Comments[0].ID)

	err = svc.DeleteTask(ctx, created.ID, u2)
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, err = svc.GetTask(ctx, created.ID)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteTask(ctx, created.ID, u1))
	_, err = svc.GetTask(ctx, created.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	var types []string
	for _, e := range rec.events {
		types = append(types, e.eventType)
	}
	assert.Equal(t, []string{EventTaskCreated, EventTaskLiked, EventCommentAdded, EventTaskDeleted}, types)
}

func TestCreateTaskForcesOwnerAndValidates(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t)

	_, err := svc.CreateTask(ctx, Draft{Text: ""}, u1)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "Text field is required", verr.Errors["text"])
	n, _ := store.Count(ctx)
	assert.Zero(t, n)

	_, err = svc.CreateTask(ctx, Draft{Text: "hi"}, identity.Caller{})
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestListTasksNewestFirst(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	empty, err := svc.ListTasks(ctx)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	var created []string
	for _, text := range []string{"t1", "t2", "t3"} {
		tk, err := svc.CreateTask(ctx, Draft{Text: text}, u1)
		require.NoError(t, err)
		created = append(created, tk.ID)
	}

	list, err := svc.ListTasks(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []string{"t3", "t2", "t1"}, []string{list[0].Text, list[1].Text, list[2].Text})
	assert.Equal(t, created[2], list[0].ID)
}

func TestRemoveLikeRestoresLedger(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	tk, err := svc.CreateTask(ctx, Draft{Text: "post"}, u1)
	require.NoError(t, err)

	_, err = svc.AddLike(ctx, tk.ID, u1)
	require.NoError(t, err)
	before, err := svc.AddLike(ctx, tk.ID, u3)
	require.NoError(t, err)

	_, err = svc.AddLike(ctx, tk.ID, u2)
	require.NoError(t, err)
	after, err := svc.RemoveLike(ctx, tk.ID, u2)
	require.NoError(t, err)
	assert.Equal(t, likeUsers(before), likeUsers(after))
	assert.Equal(t, []string{"U3", "U1"}, likeUsers(after))
}

func TestRemoveLikeNotLiked(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	tk, err := svc.CreateTask(ctx, Draft{Text: "post"}, u1)
	require.NoError(t, err)
	_, err = svc.AddLike(ctx, tk.ID, u1)
	require.NoError(t, err)

	_, err = svc.RemoveLike(ctx, tk.ID, u2)
	assert.ErrorIs(t, err, ErrNotLiked)

	got, err := svc.GetTask(ctx, tk.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"U1"}, likeUsers(got))
}

func TestLikeMissingTask(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	_, err := svc.AddLike(ctx, "nope", u1)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = svc.RemoveLike(ctx, "nope", u1)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = svc.AddComment(ctx, "nope", Draft{Text: "x"}, u1)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = svc.RemoveComment(ctx, "nope", "c", u1)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, svc.DeleteTask(ctx, "nope", u1), ErrNotFound)
}

func TestAddThenRemoveCommentLeavesOthers(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	tk, err := svc.CreateTask(ctx, Draft{Text: "post"}, u1)
	require.NoError(t, err)

	_, err = svc.AddComment(ctx, tk.ID, Draft{Text: "first"}, u2)
	require.NoError(t, err)
	before, err := svc.AddComment(ctx, tk.ID, Draft{Text: "second"}, u3)
	require.NoError(t, err)

	added, err := svc.AddComment(ctx, tk.ID, Draft{Text: "third"}, u2)
	require.NoError(t, err)
	require.Len(t, added.Comments, 3)
	commentID := added.Comments[0].ID

	// Comment removal is not restricted to the comment author.
	after, err := svc.RemoveComment(ctx, tk.ID, commentID, u1)
	require.NoError(t, err)
	assert.Equal(t, before.Comments, after.Comments)
}

func TestRemoveUnknownComment(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	tk, err := svc.CreateTask(ctx, Draft{Text: "post"}, u1)
	require.NoError(t, err)
	before, err := svc.AddComment(ctx, tk.ID, Draft{Text: "c"}, u2)
	require.NoError(t, err)

	_, err = svc.RemoveComment(ctx, tk.ID, "unknown", u2)
	assert.ErrorIs(t, err, ErrCommentNotFound)

	got, err := svc.GetTask(ctx, tk.ID)
	require.NoError(t, err)
	assert.Equal(t, before.Comments, got.Comments)
}

func TestAddCommentValidation(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	tk, err := svc.CreateTask(ctx, Draft{Text: "post"}, u1)
	require.NoError(t, err)

	_, err = svc.AddComment(ctx, tk.ID, Draft{Text: " "}, u2)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Errors, "text")
}

func TestConcurrentLikesSameUser(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	tk, err := svc.CreateTask(ctx, Draft{Text: "post"}, u1)
	require.NoError(t, err)

	var wg sync.WaitGroup
	var ok, already atomic.Int32
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.AddLike(ctx, tk.ID, u2)
			switch {
			case err == nil:
				ok.Add(1)
			case errors.Is(err, ErrAlreadyLiked):
				already.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, ok.Load())
	assert.EqualValues(t, 31, already.Load())
	got, err := svc.GetTask(ctx, tk.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"U2"}, likeUsers(got))
}

// brokenStore fails every call with an infrastructure error.
type brokenStore struct{ *MemStore }

var errDown = errors.New("connection refused")

func (brokenStore) Get(context.Context, string) (*Task, error) { return nil, errDown }
func (brokenStore) List(context.Context) ([]Task, error)       { return nil, errDown }
func (brokenStore) Update(context.Context, string, func(*Task) error) (*Task, error) {
	return nil, errDown
}

func TestStoreFailuresBecomeUnavailableAndAreLogged(t *testing.T) {
	ctx := context.Background()
	logger, hook := logtest.NewNullLogger()
	svc := NewService(brokenStore{NewMemStore()}, WithLogger(logger))

	_, err := svc.ListTasks(ctx)
	assert.ErrorIs(t, err, ErrStoreUnavailable)
	assert.ErrorIs(t, err, errDown)

	_, err = svc.AddLike(ctx, "t", u1)
	assert.ErrorIs(t, err, ErrStoreUnavailable)

	require.Len(t, hook.AllEntries(), 2)
	assert.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)
	assert.Equal(t, "like", hook.LastEntry().Data["op"])
}

func TestDomainErrorsAreNotLogged(t *testing.T) {
	ctx := context.Background()
	logger, hook := logtest.NewNullLogger()
	svc := NewService(NewMemStore(), WithLogger(logger))

	_, err := svc.GetTask(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Empty(t, hook.AllEntries())
}
