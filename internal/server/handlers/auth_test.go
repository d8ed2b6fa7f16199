package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdfstash/pdfstash/internal/session"
	"github.com/pdfstash/pdfstash/pkg/githubclient"
	"github.com/pdfstash/pdfstash/pkg/provision"
)

type stubExchanger struct {
	token       string
	exchangeErr error
	user        *githubclient.User
	userErr     error

	exchangedCode string
}

func (s *stubExchanger) AuthorizeURL(redirectURI, state, _ string) string {
	return "https://github.com/login/oauth/authorize?state=" + state + "&redirect_uri=" + redirectURI
}

func (s *stubExchanger) ExchangeCode(_ context.Context, code, _ string) (string, error) {
	s.exchangedCode = code
	if s.exchangeErr != nil {
		return "", s.exchangeErr
	}
	return s.token, nil
}

func (s *stubExchanger) GetAuthenticatedUser(context.Context, string) (*githubclient.User, error) {
	return s.user, s.userErr
}

type stubEnsurer struct {
	err    error
	calls  int
	owners []string
}

func (s *stubEnsurer) Ensure(_ context.Context, _, owner string) (*provision.Result, error) {
	s.calls++
	s.owners = append(s.owners, owner)
	if s.err != nil {
		return nil, s.err
	}
	return &provision.Result{Owner: owner, Created: true}, nil
}

func newAuthFixture(exchanger *stubExchanger, ensurer *stubEnsurer) (*AuthHandler, *session.Store) {
	store := session.NewStore(nil)
	manager := session.NewManager(store, "test-secret", false)
	h := NewAuthHandler(nil, exchanger, ensurer, manager,
		"http://localhost:5173", "http://localhost:5000/auth/github/callback", false)
	return h, store
}

func loginStateCookie(t *testing.T, h *AuthHandler) *http.Cookie {
	t.Helper()

	rec := httptest.NewRecorder()
	h.Login(rec, httptest.NewRequest(http.MethodGet, "/auth/github", nil))
	require.Equal(t, http.StatusFound, rec.Code)

	for _, c := range rec.Result().Cookies() {
		if c.Name == stateCookieName {
			return c
		}
	}
	t.Fatal("state cookie not set")
	return nil
}

func TestLogin_RedirectsWithState(t *testing.T) {
	h, _ := newAuthFixture(&stubExchanger{}, &stubEnsurer{})

	rec := httptest.NewRecorder()
	h.Login(rec, httptest.NewRequest(http.MethodGet, "/auth/github", nil))

	require.Equal(t, http.StatusFound, rec.Code)
	location := rec.Header().Get("Location")
	assert.Contains(t, location, "github.com/login/oauth/authorize")

	cookie := loginStateCookie(t, h)
	assert.NotEmpty(t, cookie.Value)
	assert.True(t, cookie.HttpOnly)
}

func TestCallback_FirstLogin(t *testing.T) {
	exchanger := &stubExchanger{token: "gho_tok", user: &githubclient.User{Login: "octocat"}}
	ensurer := &stubEnsurer{}
	h, store := newAuthFixture(exchanger, ensurer)

	cookie := loginStateCookie(t, h)

	req := httptest.NewRequest(http.MethodGet, "/auth/github/callback?code=code-1&state="+cookie.Value, nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()

	h.Callback(rec, req)

	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Location"))
	assert.Equal(t, "code-1", exchanger.exchangedCode)

	assert.Equal(t, 1, ensurer.calls)
	assert.Equal(t, []string{"octocat"}, ensurer.owners)

	assert.Equal(t, 1, store.Len(), "session populated after provisioning")
}

func TestCallback_MissingCode(t *testing.T) {
	h, store := newAuthFixture(&stubExchanger{}, &stubEnsurer{})
	cookie := loginStateCookie(t, h)

	req := httptest.NewRequest(http.MethodGet, "/auth/github/callback?state="+cookie.Value, nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()

	h.Callback(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, store.Len())
}

func TestCallback_StateMismatch(t *testing.T) {
	exchanger := &stubExchanger{token: "gho_tok", user: &githubclient.User{Login: "octocat"}}
	h, store := newAuthFixture(exchanger, &stubEnsurer{})
	cookie := loginStateCookie(t, h)

	req := httptest.NewRequest(http.MethodGet, "/auth/github/callback?code=code-1&state=wrong", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()

	h.Callback(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, exchanger.exchangedCode, "no exchange on state mismatch")
	assert.Zero(t, store.Len())
}

func TestCallback_RejectedCodeIs400(t *testing.T) {
	exchanger := &stubExchanger{exchangeErr: githubclient.ErrNoToken}
	h, store := newAuthFixture(exchanger, &stubEnsurer{})
	cookie := loginStateCookie(t, h)

	req := httptest.NewRequest(http.MethodGet, "/auth/github/callback?code=bad&state="+cookie.Value, nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()

	h.Callback(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, store.Len())
}

func TestCallback_ProvisioningFailureLeavesSessionUnset(t *testing.T) {
	exchanger := &stubExchanger{token: "gho_tok", user: &githubclient.User{Login: "octocat"}}
	ensurer := &stubEnsurer{err: errors.New("boom")}
	h, store := newAuthFixture(exchanger, ensurer)
	cookie := loginStateCookie(t, h)

	req := httptest.NewRequest(http.MethodGet, "/auth/github/callback?code=code-1&state="+cookie.Value, nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()

	h.Callback(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Zero(t, store.Len(), "no partial session on downstream failure")
}

func TestCallback_ProfileFetchFailureIs500(t *testing.T) {
	exchanger := &stubExchanger{token: "gho_tok", userErr: errors.New("boom")}
	ensurer := &stubEnsurer{}
	h, store := newAuthFixture(exchanger, ensurer)
	cookie := loginStateCookie(t, h)

	req := httptest.NewRequest(http.MethodGet, "/auth/github/callback?code=code-1&state="+cookie.Value, nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()

	h.Callback(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Zero(t, ensurer.calls, "no provisioning without a profile")
	assert.Zero(t, store.Len())
}

func TestMe(t *testing.T) {
	h, _ := newAuthFixture(&stubExchanger{}, &stubEnsurer{})

	sess := &session.Session{AccessToken: "gho_tok", User: githubclient.User{Login: "octocat", Name: "The Octocat"}}
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req = req.WithContext(session.WithSession(req.Context(), sess))
	rec := httptest.NewRecorder()

	h.Me(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"login":"octocat"`)
	assert.NotContains(t, rec.Body.String(), "gho_tok", "token never reaches the client")
}

func TestMe_NoSession(t *testing.T) {
	h, _ := newAuthFixture(&stubExchanger{}, &stubEnsurer{})

	rec := httptest.NewRecorder()
	h.Me(rec, httptest.NewRequest(http.MethodGet, "/me", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogout(t *testing.T) {
	exchanger := &stubExchanger{token: "gho_tok", user: &githubclient.User{Login: "octocat"}}
	h, store := newAuthFixture(exchanger, &stubEnsurer{})
	manager := session.NewManager(store, "test-secret", false)

	rec := httptest.NewRecorder()
	_, err := manager.Issue(rec, "gho_tok", githubclient.User{Login: "octocat"})
	require.NoError(t, err)
	cookie := rec.Result().Cookies()[0]
	require.Equal(t, 1, store.Len())

	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	req.AddCookie(cookie)
	rec = httptest.NewRecorder()

	h.Logout(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Logged out")
	assert.Zero(t, store.Len())
}
