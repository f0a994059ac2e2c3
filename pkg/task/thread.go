package task

import (
	"encoding/json"
	"time"
)

// Comment is a single entry of a task's thread.
type Comment struct {
	ID     string    `json:"id" bson:"id"`
	Text   string    `json:"text" bson:"text"`
	Name   string    `json:"name" bson:"name"`
	Avatar string    `json:"avatar" bson:"avatar"`
	User   string    `json:"user" bson:"user"`
	Date   time.Time `json:"date" bson:"date"`
}

// Thread is the comment list of a task, newest first.
type Thread []Comment

// Prepend inserts c at the front.
func (th *Thread) Prepend(c Comment) {
	*th = append(Thread{c}, *th...)
}

// Find returns the comment with the given id.
func (th Thread) Find(id string) (Comment, bool) {
	for _, c := range th {
		if c.ID == id {
			return c, true
		}
	}
	return Comment{}, false
}

// Remove deletes the first comment with the given id, keeping the order of
// the rest. It returns false when no comment matches.
func (th *Thread) Remove(id string) bool {
	for i, c := range *th {
		if c.ID == id {
			*th = append((*th)[:i:i], (*th)[i+1:]...)
			return true
		}
	}
	return false
}

// Clone returns an independent copy. Never nil.
func (th Thread) Clone() Thread {
	out := make(Thread, len(th))
	copy(out, th)
	return out
}

func (th Thread) MarshalJSON() ([]byte, error) {
	if th == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]Comment(th))
}
