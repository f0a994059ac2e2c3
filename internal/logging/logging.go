// Package logging builds the structured logger shared by the server, the
// CLI and the desktop client.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
)

// New returns a JSON logger writing to stdout with every entry tagged by
// service. An unknown level falls back to info.
func New(service, level string) *logrus.Entry {
	return NewWithOutput(os.Stdout, service, level)
}

// NewWithOutput is New writing to out.
func NewWithOutput(out io.Writer, service, level string) *logrus.Entry {
	l := logrus.New()
	l.SetOutput(out)
	l.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: time.RFC3339Nano,
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime:  "ts",
			logrus.FieldKeyLevel: "level",
			logrus.FieldKeyMsg:   "message",
		},
	})
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	l.SetLevel(lvl)
	return l.WithField("service", service)
}

// WithRequestID adds request_id to entry when id is set.
func WithRequestID(entry logrus.FieldLogger, id string) logrus.FieldLogger {
	if id == "" {
		return entry
	}
	return entry.WithField("request_id", id)
}
