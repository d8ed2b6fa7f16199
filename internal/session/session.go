// Package session holds the server-side login state: the GitHub access token
// and the cached user identity, keyed by a signed cookie. Sessions live for a
// fixed 24 hours from login; expiry is enforced by the store on every lookup,
// independent of any individual operation.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/pdfstash/pdfstash/pkg/githubclient"
)

// TTL is the fixed session lifetime, login to expiry.
const TTL = 24 * time.Hour

// Sentinel errors for session operations.
var (
	// ErrNotFound indicates no session exists for the given identifier.
	ErrNotFound = errors.New("session not found")

	// ErrExpired indicates the session's TTL has elapsed.
	ErrExpired = errors.New("session expired")

	// ErrInvalidCookie indicates the cookie is missing, malformed, or its
	// signature does not verify.
	ErrInvalidCookie = errors.New("invalid session cookie")
)

// Session associates a browser with a GitHub access token and the identity
// cached at login time. The token never appears in any serialized form.
type Session struct {
	ID          string            `json:"id"`
	AccessToken string            `json:"-"`
	User        githubclient.User `json:"user"`
	CreatedAt   time.Time         `json:"created_at"`
	ExpiresAt   time.Time         `json:"expires_at"`
}

// Expired reports whether the session's TTL has elapsed.
func (s *Session) Expired() bool {
	return time.Now().After(s.ExpiresAt)
}

type contextKey struct{}

// WithSession returns a context carrying the session. Protected operations
// receive their credentials this way rather than through any ambient state.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// FromContext returns the session threaded into ctx, or nil.
func FromContext(ctx context.Context) *Session {
	s, _ := ctx.Value(contextKey{}).(*Session)
	return s
}
