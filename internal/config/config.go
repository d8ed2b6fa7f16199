// Package config loads and validates process configuration from defaults, an
// optional YAML config file, and environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Config is the effective process configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" yaml:"server"`
	Session  SessionConfig  `mapstructure:"session" yaml:"session"`
	GitHub   GitHubConfig   `mapstructure:"github" yaml:"github"`
	Frontend FrontendConfig `mapstructure:"frontend" yaml:"frontend"`
	Log      LogConfig      `mapstructure:"log" yaml:"log"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Host         string        `mapstructure:"host" yaml:"host"`
	Port         int           `mapstructure:"port" yaml:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
}

// SessionConfig configures session cookie signing.
type SessionConfig struct {
	// Secret signs the session cookie. Required.
	Secret string `mapstructure:"secret" yaml:"-"`

	// SecureCookie sets the cookie's Secure attribute. Disable only for
	// local development over plain HTTP.
	SecureCookie bool `mapstructure:"secure_cookie" yaml:"secure_cookie"`
}

// GitHubConfig configures the OAuth app and API endpoints.
type GitHubConfig struct {
	ClientID     string `mapstructure:"client_id" yaml:"client_id"`
	ClientSecret string `mapstructure:"client_secret" yaml:"-"`

	// CallbackURL is the OAuth redirect URI registered with the app. Empty
	// derives http://localhost:<port>/auth/github/callback.
	CallbackURL string `mapstructure:"callback_url" yaml:"callback_url"`

	// APIBaseURL and AuthBaseURL override GitHub origins (tests, GHE).
	APIBaseURL  string `mapstructure:"api_base_url" yaml:"api_base_url,omitempty"`
	AuthBaseURL string `mapstructure:"auth_base_url" yaml:"auth_base_url,omitempty"`
}

// FrontendConfig configures the browser-facing origin.
type FrontendConfig struct {
	// URL is the CORS allow-origin and the post-login redirect target.
	URL string `mapstructure:"url" yaml:"url"`
}

// LogConfig configures process logging.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// RedirectURI returns the OAuth callback URI, deriving it from the listen
// port when not configured explicitly.
func (c *Config) RedirectURI() string {
	if c.GitHub.CallbackURL != "" {
		return c.GitHub.CallbackURL
	}
	return fmt.Sprintf("http://localhost:%d/auth/github/callback", c.Server.Port)
}

// Validate checks required fields and value ranges.
func (c *Config) Validate() error {
	var problems []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		problems = append(problems, fmt.Sprintf("server.port %d out of range", c.Server.Port))
	}
	if c.Session.Secret == "" {
		problems = append(problems, "session.secret (SESSION_SECRET) is required")
	}
	if c.GitHub.ClientID == "" {
		problems = append(problems, "github.client_id (GITHUB_CLIENT_ID) is required")
	}
	if c.GitHub.ClientSecret == "" {
		problems = append(problems, "github.client_secret (GITHUB_CLIENT_SECRET) is required")
	}
	if c.Frontend.URL == "" {
		problems = append(problems, "frontend.url (FRONTEND_URL) is required")
	}

	if len(problems) > 0 {
		return errors.New("invalid configuration: " + strings.Join(problems, "; "))
	}
	return nil
}
