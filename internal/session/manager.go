package session

import (
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/pdfstash/pdfstash/pkg/githubclient"
)

// CookieName is the session cookie. The cookie value is a signed JWT whose
// subject is the server-side session ID; the access token itself never
// leaves the server.
const CookieName = "pdfstash_session"

// Manager binds the session store to its cookie transport.
type Manager struct {
	store  *Store
	secret []byte
	secure bool
}

// NewManager creates a Manager signing cookies with secret. secure controls
// the cookie's Secure attribute; disable it only for local development over
// plain HTTP.
func NewManager(store *Store, secret string, secure bool) *Manager {
	return &Manager{store: store, secret: []byte(secret), secure: secure}
}

// Issue creates a session and sets its cookie on the response.
func (m *Manager) Issue(w http.ResponseWriter, accessToken string, user githubclient.User) (*Session, error) {
	sess := m.store.Create(accessToken, user)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   sess.ID,
		IssuedAt:  jwt.NewNumericDate(sess.CreatedAt),
		ExpiresAt: jwt.NewNumericDate(sess.ExpiresAt),
	})

	signed, err := token.SignedString(m.secret)
	if err != nil {
		m.store.Delete(sess.ID)
		return nil, fmt.Errorf("signing session cookie: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    signed,
		Path:     "/",
		MaxAge:   int(TTL / time.Second),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})

	return sess, nil
}

// FromRequest resolves the request's session cookie to a live session.
func (m *Manager) FromRequest(r *http.Request) (*Session, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return nil, ErrInvalidCookie
	}

	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(cookie.Value, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return m.secret, nil
	})
	if err != nil || !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidCookie
	}

	return m.store.Get(claims.Subject)
}

// Clear deletes the request's session, if any, and expires the cookie.
func (m *Manager) Clear(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(CookieName); err == nil {
		claims := &jwt.RegisteredClaims{}
		token, err := jwt.ParseWithClaims(cookie.Value, claims, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
			}
			return m.secret, nil
		})
		if err == nil && token.Valid && claims.Subject != "" {
			m.store.Delete(claims.Subject)
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}
