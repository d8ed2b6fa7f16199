package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pdfstash/pdfstash/internal/session"
	"github.com/pdfstash/pdfstash/pkg/githubclient"
	"github.com/pdfstash/pdfstash/pkg/provision"
)

// stateCookieName carries the OAuth CSRF state between the redirect and the
// callback. Short-lived; the login round trip takes seconds.
const (
	stateCookieName = "pdfstash_oauth_state"
	stateCookieTTL  = 10 * time.Minute
)

// OAuthExchanger is the slice of the GitHub client the auth flow needs.
type OAuthExchanger interface {
	AuthorizeURL(redirectURI, state, scope string) string
	ExchangeCode(ctx context.Context, code, redirectURI string) (string, error)
	GetAuthenticatedUser(ctx context.Context, token string) (*githubclient.User, error)
}

// RepoEnsurer provisions the per-user storage repository.
type RepoEnsurer interface {
	Ensure(ctx context.Context, token, owner string) (*provision.Result, error)
}

// AuthHandler implements the login, callback, logout, and identity endpoints.
type AuthHandler struct {
	log          *zap.Logger
	github       OAuthExchanger
	provisioner  RepoEnsurer
	sessions     *session.Manager
	frontendURL  string
	redirectURI  string
	secureCookie bool
}

// NewAuthHandler creates an AuthHandler. A nil logger disables logging.
func NewAuthHandler(
	log *zap.Logger,
	github OAuthExchanger,
	provisioner RepoEnsurer,
	sessions *session.Manager,
	frontendURL, redirectURI string,
	secureCookie bool,
) *AuthHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthHandler{
		log:          log.Named("auth"),
		github:       github,
		provisioner:  provisioner,
		sessions:     sessions,
		frontendURL:  frontendURL,
		redirectURI:  redirectURI,
		secureCookie: secureCookie,
	}
}

// Login handles GET /auth/github: sets the state cookie and redirects the
// browser to GitHub's authorize page.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	state := uuid.NewString()

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Path:     "/",
		MaxAge:   int(stateCookieTTL / time.Second),
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.github.AuthorizeURL(h.redirectURI, state, ""), http.StatusFound)
}

// Callback handles GET /auth/github/callback: verifies state, exchanges the
// code, caches the profile, provisions the storage repo, and issues the
// session. Any downstream failure leaves the session unset.
func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if !h.verifyState(w, r) {
		writeError(w, http.StatusBadRequest, "Invalid OAuth state")
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		writeError(w, http.StatusBadRequest, "Missing authorization code")
		return
	}

	token, err := h.github.ExchangeCode(ctx, code, h.redirectURI)
	if err != nil {
		if errors.Is(err, githubclient.ErrNoToken) {
			writeError(w, http.StatusBadRequest, "Authorization code rejected")
			return
		}
		h.log.Error("Code exchange failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Login failed")
		return
	}

	user, err := h.github.GetAuthenticatedUser(ctx, token)
	if err != nil {
		h.log.Error("Profile fetch failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Login failed")
		return
	}

	if _, err := h.provisioner.Ensure(ctx, token, user.Login); err != nil {
		h.log.Error("Storage repo provisioning failed", zap.String("login", user.Login), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Login failed")
		return
	}

	if _, err := h.sessions.Issue(w, token, *user); err != nil {
		h.log.Error("Session issue failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Login failed")
		return
	}

	h.log.Info("User logged in", zap.String("login", user.Login))

	http.Redirect(w, r, h.frontendURL, http.StatusFound)
}

// verifyState compares the callback's state parameter with the cookie set at
// login and clears the cookie either way.
func (h *AuthHandler) verifyState(w http.ResponseWriter, r *http.Request) bool {
	cookie, err := r.Cookie(stateCookieName)

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})

	if err != nil || cookie.Value == "" {
		return false
	}
	return r.URL.Query().Get("state") == cookie.Value
}

// Me handles GET /me: returns the identity cached at login, no remote call.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	if sess == nil {
		writeError(w, http.StatusUnauthorized, "Not logged in")
		return
	}

	writeJSON(w, http.StatusOK, sess.User)
}

// Logout handles POST /logout: best-effort session teardown.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.sessions.Clear(w, r)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
}
