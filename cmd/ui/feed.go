package main

import (
	"context"
	"errors"
	"sync"

	"github.com/sirupsen/logrus"

	"taskfeed/internal/client"
	"taskfeed/pkg/activity"
	"taskfeed/pkg/task"
)

// feed is the client-side state behind the window. Methods are called
// from background goroutines; the layout code reads through snapshot.
type feed struct {
	mu       sync.Mutex
	client   *client.Client
	userID   string
	userName string
	tasks    []task.Task
	events   []activity.Event
	notice   string
	log      logrus.FieldLogger
	changed  func()
}

type feedView struct {
	UserID   string
	UserName string
	Tasks    []task.Task
	Events   []activity.Event
	Notice   string
}

func newFeed(c *client.Client, log logrus.FieldLogger) *feed {
	return &feed{client: c, log: log, changed: func() {}}
}

func (f *feed) snapshot() feedView {
	f.mu.Lock()
	defer f.mu.Unlock()
	return feedView{
		UserID:   f.userID,
		UserName: f.userName,
		Tasks:    f.tasks,
		Events:   f.events,
		Notice:   f.notice,
	}
}

func (f *feed) authed() *client.Client {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.client
}

// fail records err as the notice shown at the top of the window. API
// error bodies are shown verbatim.
func (f *feed) fail(op string, err error) {
	msg := err.Error()
	var apiErr *client.Error
	if errors.As(err, &apiErr) {
		for _, v := range apiErr.Body {
			msg = v
			break
		}
	} else {
		f.log.WithError(err).WithField("op", op).Warn("request failed")
	}
	f.mu.Lock()
	f.notice = msg
	f.mu.Unlock()
	f.changed()
}

func (f *feed) refresh(ctx context.Context) {
	c := f.authed()
	tasks, err := c.ListTasks(ctx)
	if err != nil {
		f.fail("list", err)
		return
	}
	events, err := c.Activity(ctx, "", 100)
	if err != nil {
		f.fail("activity", err)
		return
	}
	f.mu.Lock()
	f.tasks = tasks
	f.events = events
	f.mu.Unlock()
	f.changed()
}

func (f *feed) signIn(ctx context.Context, name, email string) {
	reg, err := f.authed().Register(ctx, name, email, "")
	if err != nil {
		f.fail("register", err)
		return
	}
	f.mu.Lock()
	f.client = f.client.WithToken(reg.Token)
	f.userID = reg.User.ID
	f.userName = reg.User.Name
	f.notice = "Signed in as " + reg.User.Name
	f.mu.Unlock()
	f.refresh(ctx)
}

func (f *feed) post(ctx context.Context, text string) {
	f.mu.Lock()
	d := task.Draft{Text: text, Name: f.userName}
	f.mu.Unlock()
	if _, err := f.authed().CreateTask(ctx, d); err != nil {
		f.fail("create", err)
		return
	}
	f.refresh(ctx)
}

// toggleLike likes the task, or unlikes it when the signed-in user
// already has.
func (f *feed) toggleLike(ctx context.Context, t task.Task) {
	c := f.authed()
	var err error
	if t.Likes.Has(f.snapshot().UserID) {
		_, err = c.Unlike(ctx, t.ID)
	} else {
		_, err = c.Like(ctx, t.ID)
	}
	if err != nil {
		f.fail("like", err)
		return
	}
	f.refresh(ctx)
}

func (f *feed) comment(ctx context.Context, taskID, text string) {
	f.mu.Lock()
	d := task.Draft{Text: text, Name: f.userName}
	f.mu.Unlock()
	if _, err := f.authed().Comment(ctx, taskID, d); err != nil {
		f.fail("comment", err)
		return
	}
	f.refresh(ctx)
}

func (f *feed) remove(ctx context.Context, taskID string) {
	if err := f.authed().DeleteTask(ctx, taskID); err != nil {
		f.fail("delete", err)
		return
	}
	f.refresh(ctx)
}
