package githubclient

import (
	"errors"
	"fmt"
)

// Sentinel errors for GitHub API operations.
var (
	// ErrNotFound indicates the requested resource does not exist.
	ErrNotFound = errors.New("resource not found")

	// ErrUnauthorized indicates the token is missing, expired, or revoked.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden indicates the token lacks the required scope.
	ErrForbidden = errors.New("forbidden")

	// ErrConflict indicates an optimistic-concurrency failure, typically a
	// stale content SHA or an already-existing repository name.
	ErrConflict = errors.New("conflict")

	// ErrRateLimited indicates the request was rejected by GitHub's primary
	// or secondary rate limits.
	ErrRateLimited = errors.New("rate limited")

	// ErrUnavailable indicates GitHub returned a server-side failure.
	ErrUnavailable = errors.New("service unavailable")

	// ErrNoToken indicates the OAuth token endpoint returned no access token.
	ErrNoToken = errors.New("no access token returned")
)

// APIError wraps GitHub API errors with request context.
type APIError struct {
	// Op is the operation that failed (e.g., "GetContents").
	Op string

	// Path is the API path or repository path involved, if any.
	Path string

	// StatusCode is the HTTP status returned by GitHub, 0 for transport errors.
	StatusCode int

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("github %s: %s: status %d: %v", e.Op, e.Path, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("github %s: status %d: %v", e.Op, e.StatusCode, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *APIError) Unwrap() error {
	return e.Err
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConflict returns true if the error indicates an optimistic-concurrency failure.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

// IsUnauthorized returns true if the error indicates an invalid or expired token.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// IsRateLimited returns true if the error indicates GitHub rate limiting.
func IsRateLimited(err error) bool {
	return errors.Is(err, ErrRateLimited)
}
