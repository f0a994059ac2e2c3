// Package app opens the stores selected by configuration and assembles
// the task service on top of them.
package app

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"taskfeed/internal/config"
	"taskfeed/internal/db"
	"taskfeed/pkg/activity"
	"taskfeed/pkg/task"
	"taskfeed/pkg/user"
)

// Stores holds the persistence of one process.
type Stores struct {
	Tasks    task.Store
	Activity *activity.Bus
	Users    user.Store
	close    []func()
}

// Open connects the configured driver. The mongo driver keeps tasks in
// MongoDB and the activity log and user registry in memory.
func Open(ctx context.Context, cfg config.StoreConfig, log logrus.FieldLogger) (*Stores, error) {
	s := &Stores{}
	var activityStore activity.Store

	switch cfg.Driver {
	case config.DriverPostgres:
		pool, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		s.close = append(s.close, pool.Close)
		s.Tasks = task.NewPgStore(pool)
		activityStore = activity.NewPgStore(pool)
		s.Users = user.NewPgStore(pool)
	case config.DriverMongo:
		database, err := db.ConnectMongo(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, err
		}
		s.close = append(s.close, func() { _ = database.Client().Disconnect(context.Background()) })
		s.Tasks = task.NewMongoStore(database)
		activityStore = activity.NewMemStore()
		s.Users = user.NewMemStore()
	case config.DriverMemory:
		s.Tasks = task.NewMemStore()
		activityStore = activity.NewMemStore()
		s.Users = user.NewMemStore()
	default:
		return nil, fmt.Errorf("%w: unknown store driver %q", config.ErrInvalid, cfg.Driver)
	}
	s.Activity = activity.NewBus(activityStore)

	log.WithField("driver", cfg.Driver).Info("stores opened")
	return s, nil
}

// EnsureTables creates tables and indexes for every store.
func (s *Stores) EnsureTables(ctx context.Context) error {
	if err := s.Tasks.EnsureTable(ctx); err != nil {
		return fmt.Errorf("ensure tasks table: %w", err)
	}
	if err := s.Activity.EnsureTable(ctx); err != nil {
		return fmt.Errorf("ensure activity table: %w", err)
	}
	if err := s.Users.EnsureTable(ctx); err != nil {
		return fmt.Errorf("ensure users table: %w", err)
	}
	return nil
}

// Service returns a task service recording activity into s.Activity.
func (s *Stores) Service(log logrus.FieldLogger) *task.Service {
	return task.NewService(s.Tasks,
		task.WithLogger(log),
		task.WithRecorder(activity.NewRecorder(s.Activity, log)),
	)
}

// Close releases connections.
func (s *Stores) Close() {
	for _, fn := range s.close {
		fn()
	}
}
