package activity

import (
	"context"

	"github.com/sirupsen/logrus"
)

// Recorder appends engagement activity to a Store. Failures are logged
// and swallowed so the operation that caused the activity still succeeds.
type Recorder struct {
	store Store
	log   logrus.FieldLogger
}

// NewRecorder creates a Recorder. Pass a *Bus to get live fan-out.
func NewRecorder(store Store, log logrus.FieldLogger) *Recorder {
	return &Recorder{store: store, log: log}
}

// Record appends one event.
func (r *Recorder) Record(ctx context.Context, eventType, actor, taskID string, content map[string]any) {
	if _, err := r.store.Append(ctx, eventType, actor, taskID, content); err != nil {
		r.log.WithError(err).WithFields(logrus.Fields{
			"component":  "activity",
			"event_type": eventType,
			"task_id":    taskID,
		}).Warn("activity not recorded")
	}
}
