// Package githubclient is a thin typed client for the slice of the GitHub
// REST API this service depends on: the authenticated user, repository
// lifecycle, and the repository contents API.
//
// Every method takes the bearer token explicitly; the client itself holds no
// credentials beyond the OAuth app configuration used for the code exchange.
package githubclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	// DefaultAPIBaseURL is the GitHub REST API origin.
	DefaultAPIBaseURL = "https://api.github.com"

	// DefaultRawBaseURL is the origin serving raw blob content.
	DefaultRawBaseURL = "https://raw.githubusercontent.com"

	// DefaultTimeout bounds every API call. GitHub holds contents writes open
	// while it creates the commit, so this is deliberately generous.
	DefaultTimeout = 30 * time.Second

	apiVersion = "2022-11-28"
	acceptJSON = "application/vnd.github+json"
)

// Config configures a Client.
type Config struct {
	// ClientID and ClientSecret identify the OAuth app.
	ClientID     string
	ClientSecret string

	// APIBaseURL overrides the API origin. Empty uses DefaultAPIBaseURL.
	// Used for tests and GitHub Enterprise installs.
	APIBaseURL string

	// AuthBaseURL overrides the OAuth web origin (authorize/token endpoints).
	AuthBaseURL string

	// Timeout overrides DefaultTimeout when positive.
	Timeout time.Duration
}

// Client calls the GitHub REST API.
type Client struct {
	log        *zap.Logger
	cfg        Config
	apiBase    string
	authBase   string
	httpClient *http.Client
}

// New creates a Client. A nil logger disables client-side logging.
func New(log *zap.Logger, cfg Config) *Client {
	if log == nil {
		log = zap.NewNop()
	}

	apiBase := strings.TrimRight(cfg.APIBaseURL, "/")
	if apiBase == "" {
		apiBase = DefaultAPIBaseURL
	}

	authBase := strings.TrimRight(cfg.AuthBaseURL, "/")
	if authBase == "" {
		authBase = defaultAuthBaseURL
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Client{
		log:        log.Named("github"),
		cfg:        cfg,
		apiBase:    apiBase,
		authBase:   authBase,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// GetAuthenticatedUser fetches the profile of the token's owner.
func (c *Client) GetAuthenticatedUser(ctx context.Context, token string) (*User, error) {
	var user User
	if err := c.doJSON(ctx, "GetAuthenticatedUser", http.MethodGet, "/user", token, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// GetRepo looks up a repository. Returns ErrNotFound when it does not exist
// or the token cannot see it (GitHub reports both as 404).
func (c *Client) GetRepo(ctx context.Context, token, owner, repo string) (*Repository, error) {
	path := fmt.Sprintf("/repos/%s/%s", url.PathEscape(owner), url.PathEscape(repo))

	var repository Repository
	if err := c.doJSON(ctx, "GetRepo", http.MethodGet, path, token, nil, &repository); err != nil {
		return nil, err
	}
	return &repository, nil
}

// CreateRepo creates a repository under the authenticated user. A name
// collision surfaces as ErrConflict.
func (c *Client) CreateRepo(ctx context.Context, token string, req CreateRepoRequest) (*Repository, error) {
	var repository Repository
	if err := c.doJSON(ctx, "CreateRepo", http.MethodPost, "/user/repos", token, req, &repository); err != nil {
		return nil, err
	}
	return &repository, nil
}

// ListContents lists the entries of a directory inside a repository.
// Returns ErrNotFound when the path (or the repository) does not exist.
func (c *Client) ListContents(ctx context.Context, token, owner, repo, dir string) ([]ContentsEntry, error) {
	path := c.contentsPath(owner, repo, dir)

	var entries []ContentsEntry
	if err := c.doJSON(ctx, "ListContents", http.MethodGet, path, token, nil, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// GetContents fetches metadata (and inline content) for a single file.
func (c *Client) GetContents(ctx context.Context, token, owner, repo, filePath string) (*ContentsEntry, error) {
	path := c.contentsPath(owner, repo, filePath)

	var entry ContentsEntry
	if err := c.doJSON(ctx, "GetContents", http.MethodGet, path, token, nil, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

// PutContents creates or replaces a file. Replacing requires req.SHA; a stale
// SHA surfaces as ErrConflict.
func (c *Client) PutContents(ctx context.Context, token, owner, repo, filePath string, req PutContentsRequest) (*ContentsWriteResponse, error) {
	path := c.contentsPath(owner, repo, filePath)

	var resp ContentsWriteResponse
	if err := c.doJSON(ctx, "PutContents", http.MethodPut, path, token, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DeleteContents removes a file. req.SHA must match the current blob; a stale
// SHA surfaces as ErrConflict.
func (c *Client) DeleteContents(ctx context.Context, token, owner, repo, filePath string, req DeleteContentsRequest) (*ContentsWriteResponse, error) {
	path := c.contentsPath(owner, repo, filePath)

	var resp ContentsWriteResponse
	if err := c.doJSON(ctx, "DeleteContents", http.MethodDelete, path, token, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// RawContentURL returns the deterministic raw-content URL for a blob. No API
// round trip is needed to derive it.
func (c *Client) RawContentURL(owner, repo, branch, filePath string) string {
	segments := strings.Split(filePath, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return fmt.Sprintf("%s/%s/%s/%s/%s",
		DefaultRawBaseURL, url.PathEscape(owner), url.PathEscape(repo), url.PathEscape(branch), strings.Join(segments, "/"))
}

// contentsPath builds the contents API path, escaping each path segment while
// preserving separators.
func (c *Client) contentsPath(owner, repo, filePath string) string {
	trimmed := strings.Trim(filePath, "/")
	segments := strings.Split(trimmed, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return fmt.Sprintf("/repos/%s/%s/contents/%s",
		url.PathEscape(owner), url.PathEscape(repo), strings.Join(segments, "/"))
}

// doJSON performs one API request, decoding a JSON response into out when out
// is non-nil. Request bodies are JSON-encoded when body is non-nil.
func (c *Client) doJSON(ctx context.Context, op, method, path, token string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return &APIError{Op: op, Path: path, Err: err}
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.apiBase+path, reqBody)
	if err != nil {
		return &APIError{Op: op, Path: path, Err: err}
	}

	req.Header.Set("Accept", acceptJSON)
	req.Header.Set("X-GitHub-Api-Version", apiVersion)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &APIError{Op: op, Path: path, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &APIError{Op: op, Path: path, StatusCode: resp.StatusCode, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.wrapStatus(op, path, resp, raw)
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return &APIError{Op: op, Path: path, StatusCode: resp.StatusCode, Err: fmt.Errorf("decoding response: %w", err)}
		}
	}

	return nil
}

// wrapStatus converts a non-2xx GitHub response into an APIError carrying the
// matching sentinel.
func (c *Client) wrapStatus(op, path string, resp *http.Response, raw []byte) error {
	wrapped := &APIError{
		Op:         op,
		Path:       path,
		StatusCode: resp.StatusCode,
	}

	var apiErr apiErrorResponse
	_ = json.Unmarshal(raw, &apiErr)
	message := apiErr.Message
	if message == "" {
		message = http.StatusText(resp.StatusCode)
	}

	c.log.Debug("GitHub API error",
		zap.String("op", op),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.String("message", message))

	switch resp.StatusCode {
	case http.StatusNotFound:
		wrapped.Err = ErrNotFound
	case http.StatusUnauthorized:
		wrapped.Err = ErrUnauthorized
	case http.StatusForbidden:
		// Secondary rate limits come back as 403 with a rate-limit message.
		if strings.Contains(strings.ToLower(message), "rate limit") {
			wrapped.Err = ErrRateLimited
		} else {
			wrapped.Err = ErrForbidden
		}
	case http.StatusConflict:
		wrapped.Err = ErrConflict
	case http.StatusUnprocessableEntity:
		// 422 covers both validation failures and name/SHA collisions.
		lower := strings.ToLower(message)
		if strings.Contains(lower, "already exists") || strings.Contains(lower, "does not match") {
			wrapped.Err = ErrConflict
		} else {
			wrapped.Err = errors.New(message)
		}
	case http.StatusTooManyRequests:
		wrapped.Err = ErrRateLimited
	default:
		if resp.StatusCode >= 500 {
			wrapped.Err = ErrUnavailable
		} else {
			wrapped.Err = errors.New(message)
		}
	}

	return wrapped
}
