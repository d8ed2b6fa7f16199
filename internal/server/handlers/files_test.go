package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdfstash/pdfstash/internal/session"
	"github.com/pdfstash/pdfstash/pkg/githubclient"
	"github.com/pdfstash/pdfstash/pkg/objectstore"
)

type stubStore struct {
	uploadFile *objectstore.StoredFile
	uploadErr  error
	uploadReqs []objectstore.UploadRequest

	listFiles   []objectstore.StoredFile
	listErr     error
	listPattern string

	deleteResult *objectstore.DeleteResult
	deleteErr    error
	deleteCalls  int
}

func (s *stubStore) Upload(_ context.Context, _, _ string, req objectstore.UploadRequest) (*objectstore.StoredFile, error) {
	// Drain the reader so temp-file semantics resemble the real adapter.
	_, _ = io.ReadAll(req.Reader)
	s.uploadReqs = append(s.uploadReqs, req)
	if s.uploadErr != nil {
		return nil, s.uploadErr
	}
	return s.uploadFile, nil
}

func (s *stubStore) List(_ context.Context, _, _, pattern string) ([]objectstore.StoredFile, error) {
	s.listPattern = pattern
	return s.listFiles, s.listErr
}

func (s *stubStore) Delete(_ context.Context, _, _, _ string) (*objectstore.DeleteResult, error) {
	s.deleteCalls++
	if s.deleteErr != nil {
		return nil, s.deleteErr
	}
	return s.deleteResult, nil
}

func testSession() *session.Session {
	return &session.Session{
		ID:          "sess-1",
		AccessToken: "gho_tok",
		User:        githubclient.User{Login: "octocat"},
	}
}

func withSession(req *http.Request) *http.Request {
	return req.WithContext(session.WithSession(req.Context(), testSession()))
}

func multipartBody(t *testing.T, field, filename, contentType, payload string) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="`+field+`"; filename="`+filename+`"`)
	header.Set("Content-Type", contentType)

	part, err := mw.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write([]byte(payload))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	return &buf, mw.FormDataContentType()
}

func TestUpload(t *testing.T) {
	store := &stubStore{uploadFile: &objectstore.StoredFile{
		Name:        "a.pdf",
		Path:        "uploads/1700000000000-a.pdf",
		DownloadURL: "https://raw.githubusercontent.com/octocat/pdf-storage/main/uploads/1700000000000-a.pdf",
	}}
	h := NewFilesHandler(nil, store)

	body, contentType := multipartBody(t, "pdf", "a.pdf", "application/pdf", "%PDF-1.4")
	req := withSession(httptest.NewRequest(http.MethodPost, "/upload", body))
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	h.Upload(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Success bool   `json:"success"`
		URL     string `json:"url"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, store.uploadFile.DownloadURL, resp.URL)

	require.Len(t, store.uploadReqs, 1)
	assert.Equal(t, "a.pdf", store.uploadReqs[0].Filename)
	assert.Equal(t, "application/pdf", store.uploadReqs[0].ContentType)
}

func TestUpload_NoSession(t *testing.T) {
	h := NewFilesHandler(nil, &stubStore{})

	req := httptest.NewRequest(http.MethodPost, "/upload", nil)
	rec := httptest.NewRecorder()

	h.Upload(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUpload_RejectsNonPDF(t *testing.T) {
	store := &stubStore{uploadErr: objectstore.ErrNotPDF}
	h := NewFilesHandler(nil, store)

	body, contentType := multipartBody(t, "pdf", "a.txt", "text/plain", "hello")
	req := withSession(httptest.NewRequest(http.MethodPost, "/upload", body))
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	h.Upload(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Only PDF files allowed")
}

func TestUpload_TooLarge(t *testing.T) {
	store := &stubStore{uploadErr: objectstore.ErrTooLarge}
	h := NewFilesHandler(nil, store)

	body, contentType := multipartBody(t, "pdf", "big.pdf", "application/pdf", "x")
	req := withSession(httptest.NewRequest(http.MethodPost, "/upload", body))
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	h.Upload(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "File too large")
}

func TestUpload_MissingField(t *testing.T) {
	h := NewFilesHandler(nil, &stubStore{})

	body, contentType := multipartBody(t, "document", "a.pdf", "application/pdf", "x")
	req := withSession(httptest.NewRequest(http.MethodPost, "/upload", body))
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	h.Upload(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpload_UpstreamFailureIsGeneric(t *testing.T) {
	store := &stubStore{uploadErr: githubclient.ErrUnavailable}
	h := NewFilesHandler(nil, store)

	body, contentType := multipartBody(t, "pdf", "a.pdf", "application/pdf", "x")
	req := withSession(httptest.NewRequest(http.MethodPost, "/upload", body))
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	h.Upload(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "Upload failed")
	assert.NotContains(t, rec.Body.String(), "unavailable", "upstream detail stays server-side")
}

func TestList(t *testing.T) {
	store := &stubStore{listFiles: []objectstore.StoredFile{
		{Name: "a.pdf", Path: "uploads/a.pdf", DownloadURL: "https://raw.test/a.pdf"},
	}}
	h := NewFilesHandler(nil, store)

	req := withSession(httptest.NewRequest(http.MethodGet, "/files?pattern=*.pdf", nil))
	rec := httptest.NewRecorder()

	h.List(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*.pdf", store.listPattern)

	var files []map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &files))
	require.Len(t, files, 1)
	assert.Equal(t, "a.pdf", files[0]["name"])
	assert.Equal(t, "uploads/a.pdf", files[0]["path"])
	assert.Equal(t, "https://raw.test/a.pdf", files[0]["url"])
}

func TestList_EmptyStoreIsEmptyArray(t *testing.T) {
	store := &stubStore{listFiles: []objectstore.StoredFile{}}
	h := NewFilesHandler(nil, store)

	req := withSession(httptest.NewRequest(http.MethodGet, "/files", nil))
	rec := httptest.NewRecorder()

	h.List(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))
}

func TestList_BadPattern(t *testing.T) {
	store := &stubStore{listErr: objectstore.ErrBadPattern}
	h := NewFilesHandler(nil, store)

	req := withSession(httptest.NewRequest(http.MethodGet, "/files?pattern=[", nil))
	rec := httptest.NewRecorder()

	h.List(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDelete(t *testing.T) {
	store := &stubStore{deleteResult: &objectstore.DeleteResult{File: "a.pdf", CommitSHA: "commit-1"}}
	h := NewFilesHandler(nil, store)

	req := withSession(httptest.NewRequest(http.MethodPut, "/delete", strings.NewReader(`{"fileName":"a.pdf"}`)))
	rec := httptest.NewRecorder()

	h.Delete(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Success bool   `json:"success"`
		File    string `json:"file"`
		Commit  string `json:"commit"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "a.pdf", resp.File)
	assert.Equal(t, "commit-1", resp.Commit)
}

func TestDelete_MissingFileName(t *testing.T) {
	store := &stubStore{}
	h := NewFilesHandler(nil, store)

	req := withSession(httptest.NewRequest(http.MethodPut, "/delete", strings.NewReader(`{}`)))
	rec := httptest.NewRecorder()

	h.Delete(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, store.deleteCalls, "no remote call without a fileName")
}

func TestDelete_NotFound(t *testing.T) {
	store := &stubStore{deleteErr: githubclient.ErrNotFound}
	h := NewFilesHandler(nil, store)

	req := withSession(httptest.NewRequest(http.MethodPut, "/delete", strings.NewReader(`{"fileName":"ghost.pdf"}`)))
	rec := httptest.NewRecorder()

	h.Delete(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "File not found")
}

func TestDelete_ConflictIsGeneric500(t *testing.T) {
	store := &stubStore{deleteErr: githubclient.ErrConflict}
	h := NewFilesHandler(nil, store)

	req := withSession(httptest.NewRequest(http.MethodPut, "/delete", strings.NewReader(`{"fileName":"a.pdf"}`)))
	rec := httptest.NewRecorder()

	h.Delete(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "Delete failed")
}
