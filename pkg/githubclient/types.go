package githubclient

// User is the authenticated user's profile as returned by GET /user.
type User struct {
	ID        int64  `json:"id"`
	Login     string `json:"login"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url"`
}

// Repository describes a repository as returned by the repos endpoints.
type Repository struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	FullName      string `json:"full_name"`
	Private       bool   `json:"private"`
	DefaultBranch string `json:"default_branch"`
	HTMLURL       string `json:"html_url"`
}

// CreateRepoRequest is the body for POST /user/repos.
type CreateRepoRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Private     bool   `json:"private"`
	AutoInit    bool   `json:"auto_init"`
}

// ContentsEntry is one entry from the repository contents API. For directory
// listings Content is empty; for single files it holds the base64 payload.
type ContentsEntry struct {
	Type        string `json:"type"`
	Name        string `json:"name"`
	Path        string `json:"path"`
	SHA         string `json:"sha"`
	Size        int64  `json:"size"`
	DownloadURL string `json:"download_url"`
	Content     string `json:"content,omitempty"`
}

// PutContentsRequest is the body for PUT /repos/{owner}/{repo}/contents/{path}.
// Content must be base64-encoded. SHA is required only when replacing an
// existing file.
type PutContentsRequest struct {
	Message string `json:"message"`
	Content string `json:"content"`
	Branch  string `json:"branch,omitempty"`
	SHA     string `json:"sha,omitempty"`
}

// DeleteContentsRequest is the body for DELETE /repos/{owner}/{repo}/contents/{path}.
// SHA is the current blob SHA and is mandatory; GitHub rejects the call with a
// conflict when it is stale.
type DeleteContentsRequest struct {
	Message string `json:"message"`
	SHA     string `json:"sha"`
	Branch  string `json:"branch,omitempty"`
}

// CommitInfo identifies the commit produced by a contents write.
type CommitInfo struct {
	SHA     string `json:"sha"`
	HTMLURL string `json:"html_url"`
}

// ContentsWriteResponse is returned by contents create, update, and delete
// calls. Content is null on delete.
type ContentsWriteResponse struct {
	Content *ContentsEntry `json:"content"`
	Commit  CommitInfo     `json:"commit"`
}

// TokenResponse is the OAuth token endpoint response. Error fields are set
// when GitHub rejects the exchange with a 200 and an error payload.
type TokenResponse struct {
	AccessToken      string `json:"access_token"`
	TokenType        string `json:"token_type"`
	Scope            string `json:"scope"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// apiErrorResponse is GitHub's standard error body.
type apiErrorResponse struct {
	Message string `json:"message"`
}
