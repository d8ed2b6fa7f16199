// Package objectstore maps file-storage semantics (upload, list, delete) onto
// the GitHub repository contents API.
//
// Uploads become content-create commits under a fixed folder, listings read
// the folder's directory entries, and deletes run the contents API's
// read-SHA-then-delete protocol with a bounded retry on conflict.
package objectstore

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"go.uber.org/zap"

	"github.com/pdfstash/pdfstash/pkg/githubclient"
)

const (
	// PDFMediaType is the only content type accepted for upload.
	PDFMediaType = "application/pdf"

	// MaxFileSize is GitHub's hard per-file ceiling for contents API writes.
	MaxFileSize = 100 << 20 // 100 MiB

	// UploadFolder is the fixed folder all blobs are committed under.
	UploadFolder = "uploads"

	// Branch is the branch all commits target.
	Branch = "main"

	// deleteAttempts bounds the read-SHA-then-delete retry loop. Each retry
	// re-reads the SHA, so a single concurrent writer is absorbed without
	// surfacing a failure.
	deleteAttempts = 3
)

// Validation and state errors surfaced to callers.
var (
	// ErrNotPDF indicates the declared content type is not the PDF media type.
	ErrNotPDF = errors.New("only PDF files allowed")

	// ErrTooLarge indicates the file exceeds MaxFileSize.
	ErrTooLarge = errors.New("file too large")

	// ErrBadPattern indicates an invalid list filter pattern.
	ErrBadPattern = errors.New("invalid pattern")
)

// ContentsAPI is the slice of the GitHub client the store needs.
type ContentsAPI interface {
	ListContents(ctx context.Context, token, owner, repo, dir string) ([]githubclient.ContentsEntry, error)
	GetContents(ctx context.Context, token, owner, repo, filePath string) (*githubclient.ContentsEntry, error)
	PutContents(ctx context.Context, token, owner, repo, filePath string, req githubclient.PutContentsRequest) (*githubclient.ContentsWriteResponse, error)
	DeleteContents(ctx context.Context, token, owner, repo, filePath string, req githubclient.DeleteContentsRequest) (*githubclient.ContentsWriteResponse, error)
	RawContentURL(owner, repo, branch, filePath string) string
}

// UploadRequest carries one file to be committed. The caller owns Reader and
// any temp storage behind it; the store never retains either.
type UploadRequest struct {
	Reader      io.Reader
	Filename    string
	ContentType string
	Size        int64
}

// StoredFile describes one blob committed into the storage repo.
type StoredFile struct {
	Name        string `json:"name"`
	Path        string `json:"path"`
	DownloadURL string `json:"url"`

	// ContentSHA is the blob's optimistic-concurrency token. It is never
	// cached across requests; deletes re-fetch it.
	ContentSHA string `json:"-"`
}

// DeleteResult reports a completed delete.
type DeleteResult struct {
	File      string
	CommitSHA string
}

// Store adapts upload/list/delete calls to contents API operations against a
// user's storage repository.
type Store struct {
	log  *zap.Logger
	api  ContentsAPI
	repo string

	// now is swappable for tests; upload paths embed its millisecond value.
	now func() time.Time
}

// New creates a Store committing into the given repository name.
func New(log *zap.Logger, api ContentsAPI, repo string) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{
		log:  log.Named("objectstore"),
		api:  api,
		repo: repo,
		now:  time.Now,
	}
}

// Upload validates and commits one file. Validation runs before any remote
// call: a rejected request never touches GitHub.
func (s *Store) Upload(ctx context.Context, token, owner string, req UploadRequest) (*StoredFile, error) {
	if req.ContentType != PDFMediaType {
		return nil, ErrNotPDF
	}
	if req.Size > MaxFileSize {
		return nil, ErrTooLarge
	}

	data, err := io.ReadAll(io.LimitReader(req.Reader, MaxFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("reading upload: %w", err)
	}
	// Declared size can lie; re-check what was actually read.
	if int64(len(data)) > MaxFileSize {
		return nil, ErrTooLarge
	}

	name := sanitizeFilename(req.Filename)
	path := fmt.Sprintf("%s/%d-%s", UploadFolder, s.now().UnixMilli(), name)

	resp, err := s.api.PutContents(ctx, token, owner, s.repo, path, githubclient.PutContentsRequest{
		Message: "Upload " + name,
		Content: base64.StdEncoding.EncodeToString(data),
		Branch:  Branch,
	})
	if err != nil {
		return nil, err
	}

	file := &StoredFile{
		Name:        name,
		Path:        path,
		DownloadURL: s.api.RawContentURL(owner, s.repo, Branch, path),
	}
	if resp.Content != nil {
		file.ContentSHA = resp.Content.SHA
	}

	s.log.Info("Uploaded file",
		zap.String("owner", owner),
		zap.String("path", path),
		zap.Int("bytes", len(data)))

	return file, nil
}

// List returns the files under the upload folder. A missing folder or
// repository yields an empty listing: an empty store is indistinguishable
// from one whose folder was never created. pattern, when non-empty, is a
// doublestar glob matched against file names.
func (s *Store) List(ctx context.Context, token, owner, pattern string) ([]StoredFile, error) {
	if pattern != "" && !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("%w: %q", ErrBadPattern, pattern)
	}

	entries, err := s.api.ListContents(ctx, token, owner, s.repo, UploadFolder)
	if err != nil {
		if githubclient.IsNotFound(err) {
			return []StoredFile{}, nil
		}
		return nil, err
	}

	files := make([]StoredFile, 0, len(entries))
	for _, entry := range entries {
		if entry.Type != "file" {
			continue
		}
		if pattern != "" {
			ok, matchErr := doublestar.Match(pattern, entry.Name)
			if matchErr != nil {
				return nil, fmt.Errorf("%w: %q", ErrBadPattern, pattern)
			}
			if !ok {
				continue
			}
		}
		files = append(files, StoredFile{
			Name:        entry.Name,
			Path:        entry.Path,
			DownloadURL: entry.DownloadURL,
			ContentSHA:  entry.SHA,
		})
	}

	return files, nil
}

// Delete removes one file by name. The contents API requires the current blob
// SHA, so this is a read-then-write sequence; on conflict the SHA is re-read
// and the delete retried up to deleteAttempts times before the failure is
// surfaced.
func (s *Store) Delete(ctx context.Context, token, owner, fileName string) (*DeleteResult, error) {
	name := sanitizeFilename(fileName)
	path := UploadFolder + "/" + name

	var lastErr error
	for attempt := 1; attempt <= deleteAttempts; attempt++ {
		entry, err := s.api.GetContents(ctx, token, owner, s.repo, path)
		if err != nil {
			if githubclient.IsNotFound(err) && attempt > 1 {
				// A concurrent delete won the race after our first read.
				return nil, fmt.Errorf("%w: file removed concurrently", githubclient.ErrConflict)
			}
			return nil, err
		}

		resp, err := s.api.DeleteContents(ctx, token, owner, s.repo, path, githubclient.DeleteContentsRequest{
			Message: "Delete " + name,
			SHA:     entry.SHA,
			Branch:  Branch,
		})
		if err == nil {
			s.log.Info("Deleted file", zap.String("owner", owner), zap.String("path", path))
			return &DeleteResult{File: name, CommitSHA: resp.Commit.SHA}, nil
		}

		if !githubclient.IsConflict(err) {
			return nil, err
		}

		lastErr = err
		s.log.Warn("Delete conflict, re-reading SHA",
			zap.String("path", path),
			zap.Int("attempt", attempt))
	}

	return nil, lastErr
}

// sanitizeFilename strips any path components from a client-supplied name.
// The timestamp prefix added on upload keeps distinct uploads from colliding.
func sanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	base := filepath.Base(name)
	if base == "." || base == string(filepath.Separator) {
		return "file"
	}
	return base
}
