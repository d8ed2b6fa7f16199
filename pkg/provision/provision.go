// Package provision ensures each user has the dedicated storage repository
// backing their uploads, creating it on first login.
package provision

import (
	"context"

	"go.uber.org/zap"

	"github.com/pdfstash/pdfstash/pkg/githubclient"
)

const (
	// RepoName is the fixed per-user storage repository name.
	RepoName = "pdf-storage"

	repoDescription = "PDF storage managed by pdfstash"
)

// RepoAPI is the slice of the GitHub client the provisioner needs.
type RepoAPI interface {
	GetRepo(ctx context.Context, token, owner, repo string) (*githubclient.Repository, error)
	CreateRepo(ctx context.Context, token string, req githubclient.CreateRepoRequest) (*githubclient.Repository, error)
}

// Result reports the outcome of an ensure call.
type Result struct {
	// Owner is the login the repository lives under.
	Owner string

	// Created is true when this call created the repository.
	Created bool
}

// Provisioner lazily creates per-user storage repositories. Existence is
// checked on every call rather than cached; the repository can be deleted out
// of band at any time.
type Provisioner struct {
	log *zap.Logger
	api RepoAPI
}

// New creates a Provisioner. A nil logger disables logging.
func New(log *zap.Logger, api RepoAPI) *Provisioner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Provisioner{log: log.Named("provision"), api: api}
}

// Ensure guarantees the storage repository exists for owner. Concurrent first
// logins can race the create; a conflict response means another request (or a
// previous run) won the race, so it is treated as success.
func (p *Provisioner) Ensure(ctx context.Context, token, owner string) (*Result, error) {
	_, err := p.api.GetRepo(ctx, token, owner, RepoName)
	if err == nil {
		return &Result{Owner: owner}, nil
	}

	if !githubclient.IsNotFound(err) {
		return nil, err
	}

	_, err = p.api.CreateRepo(ctx, token, githubclient.CreateRepoRequest{
		Name:        RepoName,
		Description: repoDescription,
		Private:     false,
		AutoInit:    true,
	})
	if err != nil {
		if githubclient.IsConflict(err) {
			p.log.Info("Storage repo already created concurrently", zap.String("owner", owner))
			return &Result{Owner: owner}, nil
		}
		return nil, err
	}

	p.log.Info("Created storage repo", zap.String("owner", owner), zap.String("repo", RepoName))

	return &Result{Owner: owner, Created: true}, nil
}
