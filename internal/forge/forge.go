package forge

import (
	"context"
	"time"
)

// CLIStatus reports whether the platform CLI is installed.
type CLIStatus struct {
	Installed bool   `json:"installed"`
	Version   string `json:"version,omitempty"`
}

// AuthStatus reports whether the platform CLI holds a session for the host.
type AuthStatus struct {
	Authenticated bool   `json:"authenticated"`
	Username      string `json:"username,omitempty"`
}

// AuthResult is the outcome of an interactive login flow.
// Success depends only on the CLI's exit code; BrowserOpened is tracked
// independently.
type AuthResult struct {
	Success       bool   `json:"success"`
	Message       string `json:"message,omitempty"`
	AuthURL       string `json:"authUrl,omitempty"`
	DeviceCode    string `json:"deviceCode,omitempty"`
	BrowserOpened bool   `json:"browserOpened"`
	FallbackURL   string `json:"fallbackUrl,omitempty"` // set when the browser could not be opened
}

// User is the authenticated account.
type User struct {
	Username  string `json:"username"`
	Name      string `json:"name,omitempty"`
	AvatarURL string `json:"avatarUrl,omitempty"`
}

// Repository is a repository (GitHub) or project (GitLab) the user can access.
type Repository struct {
	FullName      string    `json:"fullName"`
	Description   string    `json:"description,omitempty"`
	Private       bool      `json:"private"`
	URL           string    `json:"url"`
	DefaultBranch string    `json:"defaultBranch,omitempty"`
	UpdatedAt     time.Time `json:"updatedAt,omitzero"`
}

// Organization is a GitHub organization or a GitLab group.
type Organization struct {
	ID          string `json:"id,omitempty"`
	Name        string `json:"name"`
	FullPath    string `json:"fullPath"` // namespace to create repositories under
	Description string `json:"description,omitempty"`
	AvatarURL   string `json:"avatarUrl,omitempty"`
}

// CreateRepoOptions contains parameters for creating a repository.
type CreateRepoOptions struct {
	Name        string
	Owner       string // organization or group path (empty = personal namespace)
	Description string
	Private     bool
}

// CreatedRepo is the result of CreateRepo.
type CreatedRepo struct {
	FullName string `json:"fullName"`
	URL      string `json:"url"`
}

// ReleaseOptions contains parameters for creating a release.
type ReleaseOptions struct {
	ProjectPath string // local checkout, used to resolve the repository
	TagName     string
	Title       string
	Notes       string
	Target      string // branch or commit to tag (empty = default branch)
	Draft       bool   // GitHub only
	Prerelease  bool   // GitHub only
}

// ReleaseResult is the outcome of CreateRelease. Failures are reported in
// Error rather than returned, so callers can show which step failed.
type ReleaseResult struct {
	Success    bool   `json:"success"`
	ReleaseURL string `json:"releaseUrl,omitempty"`
	TagName    string `json:"tagName,omitempty"`
	Error      string `json:"error,omitempty"`
}

// Work item states, normalized across platforms.
const (
	StateOpen   = "open"
	StateClosed = "closed"
	StateMerged = "merged"
	StateAll    = "all"
)

// Issue is a GitHub issue or GitLab issue.
type Issue struct {
	Number    int       `json:"number"` // GitLab: project-scoped iid
	Title     string    `json:"title"`
	Body      string    `json:"body,omitempty"`
	State     string    `json:"state"`
	Labels    []string  `json:"labels,omitempty"`
	Author    string    `json:"author"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"createdAt,omitzero"`
	UpdatedAt time.Time `json:"updatedAt,omitzero"`
}

// IssueListOptions filters ListIssues.
type IssueListOptions struct {
	State string // StateOpen (default), StateClosed or StateAll
	Limit int    // 0 = DefaultListLimit
}

// PullRequest is a GitHub pull request or GitLab merge request.
type PullRequest struct {
	Number     int    `json:"number"`
	Title      string `json:"title"`
	State      string `json:"state"`
	Draft      bool   `json:"draft"`
	Author     string `json:"author"`
	HeadBranch string `json:"headBranch"`
	BaseBranch string `json:"baseBranch"`
	URL        string `json:"url"`
}

// DefaultListLimit caps list operations when the caller passes no limit.
const DefaultListLimit = 30

// Adapter is the uniform contract over a git hosting platform.
// Implementations wrap the platform CLI; they never talk HTTP themselves.
type Adapter interface {
	// Platform returns the descriptor the adapter was created for.
	Platform() Platform

	// Type returns TypeGitHub or TypeGitLab.
	Type() PlatformType

	// CLIName returns the wrapped binary ("gh" or "glab").
	CLIName() string

	// CheckCLIInstalled reports whether the CLI is on PATH and its version.
	CheckCLIInstalled(ctx context.Context) CLIStatus

	// CheckAuthentication reports whether the CLI is logged in to the host.
	CheckAuthentication(ctx context.Context) AuthStatus

	// StartAuth runs the CLI's browser login flow and opens the
	// authorization URL once it appears in the CLI output.
	StartAuth(ctx context.Context) AuthResult

	// GetToken returns the stored session token.
	GetToken(ctx context.Context) (string, error)

	// GetUser returns the authenticated account.
	GetUser(ctx context.Context) (*User, error)

	// ListRepos lists repositories the user can access.
	ListRepos(ctx context.Context, limit int) ([]Repository, error)

	// DetectRepo returns the full name of the repository projectPath's
	// remote points at, if the remote is on the adapter's host.
	DetectRepo(ctx context.Context, projectPath string) (string, bool)

	// GetBranches lists branch names of a repository.
	GetBranches(ctx context.Context, fullName string) ([]string, error)

	// CreateRepo creates a repository.
	CreateRepo(ctx context.Context, opts CreateRepoOptions) (*CreatedRepo, error)

	// AddGitRemote points projectPath's remote at fullName and returns the remote URL.
	AddGitRemote(ctx context.Context, projectPath, fullName string) (string, error)

	// ListOrganizations lists organizations (GitHub) or groups (GitLab).
	// Failures yield an empty list.
	ListOrganizations(ctx context.Context) []Organization

	// GetReleaseURL returns the web URL of the release for tagName, or "".
	GetReleaseURL(ctx context.Context, projectPath, tagName string) string

	// CreateRelease creates a release.
	CreateRelease(ctx context.Context, opts ReleaseOptions) ReleaseResult

	// ListIssues lists issues of a repository.
	ListIssues(ctx context.Context, fullName string, opts IssueListOptions) ([]Issue, error)

	// GetIssue fetches a single issue.
	GetIssue(ctx context.Context, fullName string, number int) (*Issue, error)

	// CommentOnIssue adds a comment (GitLab: note) to an issue.
	CommentOnIssue(ctx context.Context, fullName string, number int, body string) error

	// ListPullRequests lists pull/merge requests in the given state.
	ListPullRequests(ctx context.Context, fullName, state string, limit int) ([]PullRequest, error)
}

func limitOrDefault(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	return limit
}
