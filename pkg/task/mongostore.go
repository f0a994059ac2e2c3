package task

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DefaultMaxAttempts bounds the optimistic retry loop of MongoStore.
const DefaultMaxAttempts = 8

// MongoStore keeps each task as one document with its likes and comments
// embedded. Writes are compare-and-swap on a version counter and retried
// when another writer got there first.
type MongoStore struct {
	coll        *mongo.Collection
	maxAttempts int
}

// NewMongoStore creates a MongoStore on the "tasks" collection of db.
func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{coll: db.Collection("tasks"), maxAttempts: DefaultMaxAttempts}
}

type taskDoc struct {
	ID       string    `bson:"_id"`
	Text     string    `bson:"text"`
	Name     string    `bson:"name"`
	Avatar   string    `bson:"avatar"`
	User     string    `bson:"user"`
	Date     time.Time `bson:"date"`
	Likes    []Like    `bson:"likes"`
	Comments []Comment `bson:"comments"`
	Version  int64     `bson:"version"`
}

func toDoc(t *Task, version int64) taskDoc {
	comments := []Comment(t.Comments.Clone())
	return taskDoc{
		ID:       t.ID,
		Text:     t.Text,
		Name:     t.Name,
		Avatar:   t.Avatar,
		User:     t.User,
		Date:     t.Date,
		Likes:    t.Likes.Likes(),
		Comments: comments,
		Version:  version,
	}
}

func (d taskDoc) task() *Task {
	comments := Thread(d.Comments)
	if comments == nil {
		comments = Thread{}
	}
	return &Task{
		ID:       d.ID,
		Text:     d.Text,
		Name:     d.Name,
		Avatar:   d.Avatar,
		User:     d.User,
		Date:     d.Date.UTC(),
		Likes:    NewLedger(d.Likes...),
		Comments: comments,
	}
}

// EnsureTable creates the date index used for listing.
func (s *MongoStore) EnsureTable(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "date", Value: -1}, {Key: "_id", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("create tasks index: %w", err)
	}
	return nil
}

// Create inserts a new task document.
func (s *MongoStore) Create(ctx context.Context, t *Task) error {
	if _, err := s.coll.InsertOne(ctx, toDoc(t, 1)); err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

func (s *MongoStore) load(ctx context.Context, id string) (taskDoc, error) {
	var d taskDoc
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return d, ErrNotFound
	}
	return d, err
}

// Get retrieves a single task by ID.
func (s *MongoStore) Get(ctx context.Context, id string) (*Task, error) {
	d, err := s.load(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get task %s: %w", id, err)
	}
	return d.task(), nil
}

// List returns all tasks, newest first.
func (s *MongoStore) List(ctx context.Context) ([]Task, error) {
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := s.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer cur.Close(ctx)

	tasks := []Task{}
	for cur.Next(ctx) {
		var d taskDoc
		if err := cur.Decode(&d); err != nil {
			return nil, fmt.Errorf("decode task: %w", err)
		}
		tasks = append(tasks, *d.task())
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("cursor: %w", err)
	}
	return tasks, nil
}

// Update applies fn and writes the embedded collections back only if the
// document version is unchanged, retrying on conflict.
func (s *MongoStore) Update(ctx context.Context, id string, fn func(*Task) error) (*Task, error) {
	for attempt := 0; attempt < s.maxAttempts; attempt++ {
		d, err := s.load(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("update task %s: %w", id, err)
		}
		t := d.task()
		if err := fn(t); err != nil {
			return nil, err
		}
		next := toDoc(t, d.Version+1)
		res, err := s.coll.UpdateOne(ctx,
			bson.M{"_id": id, "version": d.Version},
			bson.M{"$set": bson.M{
				"likes":    next.Likes,
				"comments": next.Comments,
				"version":  next.Version,
			}})
		if err != nil {
			return nil, fmt.Errorf("update task %s: %w", id, err)
		}
		if res.MatchedCount == 1 {
			return t, nil
		}
	}
	return nil, fmt.Errorf("update task %s: %w", id, ErrConflict)
}

// Delete runs check against the current document and deletes it only if
// the version is unchanged, retrying on conflict.
func (s *MongoStore) Delete(ctx context.Context, id string, check func(*Task) error) error {
	for attempt := 0; attempt < s.maxAttempts; attempt++ {
		d, err := s.load(ctx, id)
		if err != nil {
			return fmt.Errorf("delete task %s: %w", id, err)
		}
		if check != nil {
			if err := check(d.task()); err != nil {
				return err
			}
		}
		res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id, "version": d.Version})
		if err != nil {
			return fmt.Errorf("delete task %s: %w", id, err)
		}
		if res.DeletedCount == 1 {
			return nil
		}
	}
	return fmt.Errorf("delete task %s: %w", id, ErrConflict)
}

// Count returns total task count.
func (s *MongoStore) Count(ctx context.Context) (int, error) {
	n, err := s.coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("count tasks: %w", err)
	}
	return int(n), nil
}
