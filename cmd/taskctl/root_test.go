package main

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskfeed/internal/app"
	"taskfeed/internal/config"
	"taskfeed/internal/identity"
	"taskfeed/pkg/task"
)

func newTestEnv(t *testing.T) *env {
	t.Helper()
	cfg := config.Default()
	cfg.Store.Driver = config.DriverMemory
	cfg.Auth.Secret = "test-secret"
	logger, _ := logtest.NewNullLogger()
	return &env{cfg: cfg, log: logger, open: app.Open}
}

func run(t *testing.T, e *env, args ...string) (string, error) {
	t.Helper()
	root := newRootCommand(e)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestInitAndStatus(t *testing.T) {
	e := newTestEnv(t)

	out, err := run(t, e, "init")
	require.NoError(t, err)
	assert.Contains(t, out, "all tables initialized")

	out, err = run(t, e, "status")
	require.NoError(t, err)
	assert.JSONEq(t, `{"tasks":0,"activity":0}`, out)
}

func TestTaskCommands(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	stores, err := e.Stores(ctx)
	require.NoError(t, err)
	created, err := stores.Service(e.log).CreateTask(ctx, task.Draft{Text: "from the feed"}, identity.Trusted("U1"))
	require.NoError(t, err)

	out, err := run(t, e, "task", "list")
	require.NoError(t, err)
	var tasks []task.Task
	require.NoError(t, json.Unmarshal([]byte(out), &tasks))
	require.Len(t, tasks, 1)

	out, err = run(t, e, "task", "list", "--format=short")
	require.NoError(t, err)
	assert.Contains(t, out, "from the feed")

	out, err = run(t, e, "task", "get", created.ID)
	require.NoError(t, err)
	assert.Contains(t, out, created.ID)

	_, err = run(t, e, "task", "delete", created.ID, "--as", "U2")
	assert.ErrorIs(t, err, task.ErrUnauthorized)

	_, err = run(t, e, "task", "delete", created.ID)
	assert.Error(t, err)

	out, err = run(t, e, "task", "delete", created.ID, "--as", "U1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":true}`, out)

	_, err = run(t, e, "task", "get", created.ID)
	assert.ErrorIs(t, err, task.ErrNotFound)
}

func TestActivityCommands(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	stores, err := e.Stores(ctx)
	require.NoError(t, err)
	svc := stores.Service(e.log)
	created, err := svc.CreateTask(ctx, task.Draft{Text: "post"}, identity.Trusted("U1"))
	require.NoError(t, err)
	_, err = svc.AddLike(ctx, created.ID, identity.Trusted("U2"))
	require.NoError(t, err)

	out, err := run(t, e, "activity", "list", "--task", created.ID)
	require.NoError(t, err)
	var events []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &events))
	require.Len(t, events, 2)
	assert.Equal(t, task.EventTaskLiked, events[0]["type"])

	out, err = run(t, e, "activity", "list", "--format=short", "--limit=1")
	require.NoError(t, err)
	assert.Contains(t, out, task.EventTaskLiked)
	assert.NotContains(t, out, task.EventTaskCreated)

	out, err = run(t, e, "activity", "verify")
	require.NoError(t, err)
	assert.Contains(t, out, "hash chain verified")
}

func TestUserAndTokenCommands(t *testing.T) {
	e := newTestEnv(t)

	out, err := run(t, e, "user", "register", "--name", "Alice", "--email", "alice@example.com")
	require.NoError(t, err)
	var reg struct {
		User  struct{ ID string } `json:"user"`
		Token string              `json:"token"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &reg))
	require.NotEmpty(t, reg.Token)

	tokens, err := e.Tokens()
	require.NoError(t, err)
	caller, err := tokens.Verify(reg.Token)
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, caller.ID())

	out, err = run(t, e, "user", "get", reg.User.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "alice@example.com")

	out, err = run(t, e, "token", "issue", "U42")
	require.NoError(t, err)
	caller, err = tokens.Verify(out[:len(out)-1])
	require.NoError(t, err)
	assert.Equal(t, "U42", caller.ID())

	e.cfg.Auth.Secret = ""
	_, err = run(t, e, "token", "issue", "U42")
	assert.ErrorIs(t, err, config.ErrInvalid)
}

func TestConfigRedactsSecret(t *testing.T) {
	e := newTestEnv(t)
	out, err := run(t, e, "config")
	require.NoError(t, err)
	assert.Contains(t, out, "<redacted>")
	assert.NotContains(t, out, "test-secret")
}
