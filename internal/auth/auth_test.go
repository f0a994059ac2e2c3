package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskfeed/internal/identity"
)

func TestIssueAndVerify(t *testing.T) {
	tokens := NewTokens("secret", "taskfeed", time.Hour)

	token, err := tokens.Issue("U1", "Alice")
	require.NoError(t, err)

	caller, err := tokens.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "U1", caller.ID())

	_, err = tokens.Issue("", "nobody")
	assert.ErrorIs(t, err, ErrNoSubject)
}

func TestVerifyRejects(t *testing.T) {
	tokens := NewTokens("secret", "taskfeed", time.Hour)
	good, err := tokens.Issue("U1", "")
	require.NoError(t, err)

	other, err := NewTokens("other", "taskfeed", time.Hour).Issue("U1", "")
	require.NoError(t, err)
	foreign, err := NewTokens("secret", "elsewhere", time.Hour).Issue("U1", "")
	require.NoError(t, err)

	expired := NewTokens("secret", "taskfeed", time.Hour)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	stale, err := expired.Issue("U1", "")
	require.NoError(t, err)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Subject: "U1", Issuer: "taskfeed", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	for name, token := range map[string]string{
		"garbage":      "not.a.jwt",
		"wrong secret": other,
		"wrong issuer": foreign,
		"expired":      stale,
		"alg none":     none,
		"tampered":     good + "x",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := tokens.Verify(token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestMiddleware(t *testing.T) {
	tokens := NewTokens("secret", "taskfeed", time.Hour)
	token, err := tokens.Issue("U7", "")
	require.NoError(t, err)

	var seen identity.Caller
	h := Authenticate(tokens)(Require(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = identity.FromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	cases := []struct {
		name   string
		header string
		status int
	}{
		{"valid", "Bearer " + token, http.StatusNoContent},
		{"lowercase scheme", "bearer " + token, http.StatusNoContent},
		{"missing", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + token, http.StatusUnauthorized},
		{"invalid", "Bearer nope", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			seen = identity.Caller{}
			req := httptest.NewRequest(http.MethodPost, "/tasks", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tc.status, rec.Code)
			if tc.status == http.StatusNoContent {
				assert.Equal(t, "U7", seen.ID())
			} else {
				assert.JSONEq(t, `{"unauthenticated":"Authentication required"}`, rec.Body.String())
			}
		})
	}
}
