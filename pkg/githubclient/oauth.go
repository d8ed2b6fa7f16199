package githubclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"
)

const defaultAuthBaseURL = "https://github.com"

// AuthorizeURL builds the GitHub OAuth authorization URL the browser is
// redirected to. state is echoed back on the callback and must be verified
// there.
func (c *Client) AuthorizeURL(redirectURI, state, scope string) string {
	if scope == "" {
		scope = "repo read:user"
	}

	params := url.Values{
		"client_id":    {c.cfg.ClientID},
		"redirect_uri": {redirectURI},
		"scope":        {scope},
		"state":        {state},
	}

	return fmt.Sprintf("%s/login/oauth/authorize?%s", c.authBase, params.Encode())
}

// ExchangeCode exchanges an authorization code for an access token. Returns
// ErrNoToken when GitHub accepts the request but yields no token, which is
// how it reports a missing or already-used code.
func (c *Client) ExchangeCode(ctx context.Context, code, redirectURI string) (string, error) {
	data := url.Values{
		"client_id":     {c.cfg.ClientID},
		"client_secret": {c.cfg.ClientSecret},
		"code":          {code},
		"redirect_uri":  {redirectURI},
	}

	endpoint := c.authBase + "/login/oauth/access_token"

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(data.Encode()))
	if err != nil {
		return "", &APIError{Op: "ExchangeCode", Err: err}
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &APIError{Op: "ExchangeCode", Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &APIError{Op: "ExchangeCode", StatusCode: resp.StatusCode, Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		return "", &APIError{Op: "ExchangeCode", StatusCode: resp.StatusCode, Err: ErrNoToken}
	}

	var tokenResp TokenResponse
	if err := json.Unmarshal(raw, &tokenResp); err != nil {
		return "", &APIError{Op: "ExchangeCode", StatusCode: resp.StatusCode, Err: fmt.Errorf("decoding response: %w", err)}
	}

	// GitHub reports bad codes with a 200 and an error payload.
	if tokenResp.Error != "" || tokenResp.AccessToken == "" {
		c.log.Warn("OAuth code exchange rejected",
			zap.String("error", tokenResp.Error),
			zap.String("description", tokenResp.ErrorDescription))
		return "", &APIError{Op: "ExchangeCode", StatusCode: resp.StatusCode, Err: ErrNoToken}
	}

	return tokenResp.AccessToken, nil
}
