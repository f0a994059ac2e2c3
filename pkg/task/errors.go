package task

import (
	"errors"
	"sort"
	"strings"
)

var (
	ErrNotFound         = errors.New("task not found")
	ErrCommentNotFound  = errors.New("comment not found")
	ErrUnauthorized     = errors.New("user not authorized")
	ErrUnauthenticated  = errors.New("no authenticated caller")
	ErrAlreadyLiked     = errors.New("user already liked this task")
	ErrNotLiked         = errors.New("user has not liked this task")
	ErrStoreUnavailable = errors.New("task store unavailable")
	ErrConflict         = errors.New("concurrent update conflict")
)

// ValidationError carries the per-field messages produced by a Validator.
type ValidationError struct {
	Errors map[string]string
}

func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Errors))
	for f := range e.Errors {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = f + ": " + e.Errors[f]
	}
	return "invalid input: " + strings.Join(parts, "; ")
}

// isDomainError reports whether err is a client-facing outcome rather than
// an infrastructure failure.
func isDomainError(err error) bool {
	var verr *ValidationError
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, ErrCommentNotFound),
		errors.Is(err, ErrUnauthorized),
		errors.Is(err, ErrUnauthenticated),
		errors.Is(err, ErrAlreadyLiked),
		errors.Is(err, ErrNotLiked),
		errors.As(err, &verr):
		return true
	}
	return false
}
