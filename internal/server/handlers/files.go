package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/pdfstash/pdfstash/internal/session"
	"github.com/pdfstash/pdfstash/pkg/githubclient"
	"github.com/pdfstash/pdfstash/pkg/objectstore"
)

// multipartMemoryLimit is the in-memory buffer for multipart parsing; larger
// parts spool to temp files that are removed on every exit path.
const multipartMemoryLimit = 32 << 20 // 32 MiB

// ObjectStore is the slice of the storage adapter the handlers need.
type ObjectStore interface {
	Upload(ctx context.Context, token, owner string, req objectstore.UploadRequest) (*objectstore.StoredFile, error)
	List(ctx context.Context, token, owner, pattern string) ([]objectstore.StoredFile, error)
	Delete(ctx context.Context, token, owner, fileName string) (*objectstore.DeleteResult, error)
}

// FilesHandler implements the session-gated file endpoints.
type FilesHandler struct {
	log   *zap.Logger
	store ObjectStore
}

// NewFilesHandler creates a FilesHandler. A nil logger disables logging.
func NewFilesHandler(log *zap.Logger, store ObjectStore) *FilesHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &FilesHandler{log: log.Named("files"), store: store}
}

// Upload handles POST /upload. Expects one multipart file in the "pdf" field.
func (h *FilesHandler) Upload(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	if sess == nil {
		writeError(w, http.StatusUnauthorized, "Not logged in")
		return
	}

	if err := r.ParseMultipartForm(multipartMemoryLimit); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid multipart request")
		return
	}
	// Unconditional temp cleanup, whatever happens below.
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile("pdf")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Field 'pdf' is required")
		return
	}
	defer func() { _ = file.Close() }()

	stored, err := h.store.Upload(r.Context(), sess.AccessToken, sess.User.Login, objectstore.UploadRequest{
		Reader:      file,
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
	})
	if err != nil {
		switch {
		case errors.Is(err, objectstore.ErrNotPDF):
			writeError(w, http.StatusBadRequest, "Only PDF files allowed")
		case errors.Is(err, objectstore.ErrTooLarge):
			writeError(w, http.StatusBadRequest, "File too large")
		default:
			h.log.Error("Upload failed",
				zap.String("login", sess.User.Login),
				zap.String("filename", header.Filename),
				zap.Error(err))
			writeError(w, http.StatusInternalServerError, "Upload failed")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"url":     stored.DownloadURL,
	})
}

// List handles GET /files. An optional "pattern" query parameter filters by
// file name glob.
func (h *FilesHandler) List(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	if sess == nil {
		writeError(w, http.StatusUnauthorized, "Not logged in")
		return
	}

	files, err := h.store.List(r.Context(), sess.AccessToken, sess.User.Login, r.URL.Query().Get("pattern"))
	if err != nil {
		if errors.Is(err, objectstore.ErrBadPattern) {
			writeError(w, http.StatusBadRequest, "Invalid pattern")
			return
		}
		h.log.Error("List failed", zap.String("login", sess.User.Login), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to fetch files")
		return
	}

	writeJSON(w, http.StatusOK, files)
}

type deleteRequest struct {
	FileName string `json:"fileName"`
}

// Delete handles PUT /delete.
func (h *FilesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	if sess == nil {
		writeError(w, http.StatusUnauthorized, "Not logged in")
		return
	}

	var req deleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.FileName == "" {
		writeError(w, http.StatusBadRequest, "fileName is required")
		return
	}

	result, err := h.store.Delete(r.Context(), sess.AccessToken, sess.User.Login, req.FileName)
	if err != nil {
		if githubclient.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "File not found")
			return
		}
		h.log.Error("Delete failed",
			zap.String("login", sess.User.Login),
			zap.String("file", req.FileName),
			zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Delete failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"file":    result.File,
		"commit":  result.CommitSHA,
	})
}
