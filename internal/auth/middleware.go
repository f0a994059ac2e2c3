package auth

import (
	"encoding/json"
	"net/http"
	"strings"

	"taskfeed/internal/identity"
)

// Verifier turns a bearer token into a Caller.
type Verifier interface {
	Verify(token string) (identity.Caller, error)
}

// BearerToken extracts the token from an "Authorization: Bearer" header.
func BearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// Authenticate attaches the verified caller to the request context when a
// valid bearer token is present. Requests without one pass through
// anonymous; Require rejects them where a caller is needed.
func Authenticate(v Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token, ok := BearerToken(r); ok {
				if caller, err := v.Verify(token); err == nil {
					r = r.WithContext(identity.WithCaller(r.Context(), caller))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Require answers 401 {"unauthenticated": ...} unless the request carries
// a caller.
func Require(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := identity.FromContext(r.Context()); !ok {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{"unauthenticated": "Authentication required"})
			return
		}
		next(w, r)
	}
}
