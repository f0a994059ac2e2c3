// Package user is the registry of people who post, like and comment.
package user

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"
)

var (
	ErrNotFound     = errors.New("user not found")
	ErrInvalidEmail = errors.New("invalid email")
	ErrNameRequired = errors.New("name is required")
)

// User is a registered identity. Its ID is the subject of issued tokens
// and becomes the owner of the tasks it creates.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Avatar    string    `json:"avatar"`
	CreatedAt time.Time `json:"created_at"`
}

// Store is the contract for user persistence.
type Store interface {
	// Register creates or returns an existing user. Idempotent: matches
	// on email.
	Register(ctx context.Context, name, email, avatar string) (*User, error)

	// Get returns a user by ID.
	Get(ctx context.Context, id string) (*User, error)

	// ByEmail returns a user by email.
	ByEmail(ctx context.Context, email string) (*User, error)

	// List returns all users, oldest first.
	List(ctx context.Context) ([]User, error)

	// EnsureTable creates the users table if it doesn't exist.
	EnsureTable(ctx context.Context) error
}

// Normalize trims the inputs, lower-cases the email and checks both.
func Normalize(name, email string) (string, string, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" {
		return "", "", ErrNameRequired
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", "", ErrInvalidEmail
	}
	return name, email, nil
}
