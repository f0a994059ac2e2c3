package app

import (
	"context"
	"testing"

	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskfeed/internal/config"
	"taskfeed/internal/identity"
	"taskfeed/pkg/task"
)

func TestOpenMemory(t *testing.T) {
	ctx := context.Background()
	logger, hook := logtest.NewNullLogger()

	stores, err := Open(ctx, config.StoreConfig{Driver: config.DriverMemory}, logger)
	require.NoError(t, err)
	defer stores.Close()
	require.NoError(t, stores.EnsureTables(ctx))
	assert.Equal(t, "memory", hook.LastEntry().Data["driver"])

	svc := stores.Service(logger)
	created, err := svc.CreateTask(ctx, task.Draft{Text: "hi"}, identity.Trusted("U1"))
	require.NoError(t, err)

	events, err := stores.Activity.ByTask(ctx, created.ID, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, task.EventTaskCreated, events[0].Type)
}

func TestOpenUnknownDriver(t *testing.T) {
	logger, _ := logtest.NewNullLogger()
	_, err := Open(context.Background(), config.StoreConfig{Driver: "sqlite"}, logger)
	assert.ErrorIs(t, err, config.ErrInvalid)
}
