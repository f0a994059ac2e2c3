package task

import "encoding/json"

// Like records that a user reacted to a task.
type Like struct {
	User string `json:"user" bson:"user"`
}

// Ledger is the ordered like set of a task, newest first. The slice keeps
// display order; members indexes it by user so membership never depends on
// a scan. Records loaded from a store may contain duplicates written by an
// older writer; members counts them so removal drops exactly one.
type Ledger struct {
	likes   []Like
	members map[string]int
}

// NewLedger builds a ledger from likes in display order.
func NewLedger(likes ...Like) Ledger {
	l := Ledger{likes: append([]Like(nil), likes...)}
	l.reindex()
	return l
}

func (l *Ledger) reindex() {
	l.members = make(map[string]int, len(l.likes))
	for _, lk := range l.likes {
		l.members[lk.User]++
	}
}

// Has reports whether user is in the ledger.
func (l *Ledger) Has(user string) bool {
	if l.members == nil {
		for _, lk := range l.likes {
			if lk.User == user {
				return true
			}
		}
		return false
	}
	return l.members[user] > 0
}

// Add inserts user at the front. It returns false, leaving the ledger
// untouched, when user is already present.
func (l *Ledger) Add(user string) bool {
	if l.members == nil {
		l.reindex()
	}
	if l.Has(user) {
		return false
	}
	l.likes = append([]Like{{User: user}}, l.likes...)
	l.members[user]++
	return true
}

// Remove deletes the first like by user. It returns false when user is
// absent.
func (l *Ledger) Remove(user string) bool {
	if l.members == nil {
		l.reindex()
	}
	if !l.Has(user) {
		return false
	}
	for i, lk := range l.likes {
		if lk.User == user {
			l.likes = append(l.likes[:i:i], l.likes[i+1:]...)
			break
		}
	}
	if l.members[user]--; l.members[user] == 0 {
		delete(l.members, user)
	}
	return true
}

// Len returns the number of likes.
func (l Ledger) Len() int { return len(l.likes) }

// Likes returns a copy of the likes in display order. Never nil.
func (l Ledger) Likes() []Like {
	out := make([]Like, len(l.likes))
	copy(out, l.likes)
	return out
}

// Clone returns an independent copy.
func (l Ledger) Clone() Ledger {
	return NewLedger(l.likes...)
}

func (l Ledger) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.Likes())
}

func (l *Ledger) UnmarshalJSON(data []byte) error {
	var likes []Like
	if err := json.Unmarshal(data, &likes); err != nil {
		return err
	}
	*l = NewLedger(likes...)
	return nil
}
