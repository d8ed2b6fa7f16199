package middleware

import (
	"net/http"

	"github.com/pdfstash/pdfstash/internal/session"
)

// SessionResolver resolves a request to a live session. Satisfied by
// *session.Manager.
type SessionResolver interface {
	FromRequest(r *http.Request) (*session.Session, error)
}

// RequireSession is the auth gate in front of every storage operation. A
// request without a valid session is rejected with 401 before any further
// work; otherwise the session is threaded into the request context.
func RequireSession(resolver SessionResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, err := resolver.FromRequest(r)
			if err != nil {
				writeError(w, http.StatusUnauthorized, ErrorBody{Error: "Not logged in"})
				return
			}

			next.ServeHTTP(w, r.WithContext(session.WithSession(r.Context(), sess)))
		})
	}
}
