// Package identity carries the verified caller of a request.
//
// A Caller can only be produced by the authentication layer (or by tests
// through Trusted); it has no exported fields, so it never round-trips
// through a request payload.
package identity

import "context"

// Caller is an authenticated user identity.
type Caller struct {
	id string
}

// Trusted wraps an identifier that has already been verified.
func Trusted(id string) Caller {
	return Caller{id: id}
}

// ID returns the user identifier.
func (c Caller) ID() string { return c.id }

// IsZero reports whether c carries no identity.
func (c Caller) IsZero() bool { return c.id == "" }

func (c Caller) String() string { return c.id }

type ctxKey string

const callerContextKey ctxKey = "taskfeed.identity.caller"

// WithCaller returns a copy of ctx carrying c.
func WithCaller(ctx context.Context, c Caller) context.Context {
	return context.WithValue(ctx, callerContextKey, c)
}

// FromContext returns the caller stored by WithCaller.
func FromContext(ctx context.Context) (Caller, bool) {
	c, ok := ctx.Value(callerContextKey).(Caller)
	if !ok || c.IsZero() {
		return Caller{}, false
	}
	return c, true
}
