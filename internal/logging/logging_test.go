package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithOutput(&buf, "taskfeed", "debug")
	assert.Equal(t, logrus.DebugLevel, log.Logger.GetLevel())

	WithRequestID(log, "req-1").WithField("task_id", "T1").Info("hello")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "hello", line["message"])
	assert.Equal(t, "info", line["level"])
	assert.Equal(t, "taskfeed", line["service"])
	assert.Equal(t, "req-1", line["request_id"])
	assert.Equal(t, "T1", line["task_id"])
	assert.Contains(t, line, "ts")
}

func TestUnknownLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithOutput(&buf, "taskfeed", "chatty")
	assert.Equal(t, logrus.InfoLevel, log.Logger.GetLevel())

	log.Debug("hidden")
	assert.Zero(t, buf.Len())
	assert.Equal(t, log, WithRequestID(log, ""))
}
