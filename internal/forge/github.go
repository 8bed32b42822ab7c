package forge

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/raphi011/forgectl/internal/browser"
	"github.com/raphi011/forgectl/internal/cmd"
)

// GitHub implements Adapter using the gh CLI.
type GitHub struct {
	platform Platform
	runner   cmd.Runner
	opener   browser.Opener
	notify   func(AuthResult)
	remote   string
}

var _ Adapter = (*GitHub)(nil)

// NewGitHub creates a GitHub adapter for p.
func NewGitHub(p Platform, deps Deps) *GitHub {
	deps = deps.withDefaults()
	return &GitHub{
		platform: p,
		runner:   deps.Runner,
		opener:   deps.Browser,
		notify:   deps.OnLoginPrompt,
		remote:   deps.Remote,
	}
}

// Platform returns the platform descriptor.
func (g *GitHub) Platform() Platform { return g.platform }

// Type returns TypeGitHub.
func (g *GitHub) Type() PlatformType { return TypeGitHub }

// CLIName returns "gh".
func (g *GitHub) CLIName() string { return "gh" }

// gh runs the gh CLI. GH_HOST routes commands without a repo argument to
// self-hosted instances.
func (g *GitHub) gh(ctx context.Context, dir string, args ...string) ([]byte, error) {
	c := cmd.Command{Dir: dir, Name: "gh", Args: args}
	if g.platform.IsSelfHosted {
		c.Env = []string{"GH_HOST=" + g.platform.Host}
	}
	return g.runner.Output(ctx, c)
}

func (g *GitHub) api(ctx context.Context, endpoint string, extra ...string) ([]byte, error) {
	args := append([]string{"api", "--hostname", g.platform.Host, endpoint}, extra...)
	return g.gh(ctx, "", args...)
}

// repoArg formats fullName for -R, host-qualified on self-hosted instances.
func (g *GitHub) repoArg(fullName string) string {
	if g.platform.IsSelfHosted {
		return g.platform.Host + "/" + fullName
	}
	return fullName
}

func (g *GitHub) fail(op string, err error) error {
	return opError(TypeGitHub, op, err)
}

// CheckCLIInstalled checks that gh is on PATH and reads its version.
func (g *GitHub) CheckCLIInstalled(ctx context.Context) CLIStatus {
	if _, err := g.runner.LookPath("gh"); err != nil {
		return CLIStatus{}
	}
	out, err := g.gh(ctx, "", "--version")
	if err != nil {
		return CLIStatus{Installed: true}
	}
	return CLIStatus{Installed: true, Version: parseVersion(string(out))}
}

// CheckAuthentication checks that gh is logged in to the platform host.
func (g *GitHub) CheckAuthentication(ctx context.Context) AuthStatus {
	if _, err := g.gh(ctx, "", "auth", "status", "--hostname", g.platform.Host); err != nil {
		return AuthStatus{}
	}
	status := AuthStatus{Authenticated: true}
	if out, err := g.api(ctx, "user", "--jq", ".login"); err == nil {
		status.Username = strings.TrimSpace(string(out))
	}
	return status
}

// StartAuth runs "gh auth login --web" and opens the device login page
// once gh prints the one-time code.
func (g *GitHub) StartAuth(ctx context.Context) AuthResult {
	flow := &loginFlow{
		host:       g.platform.Host,
		authPath:   "/login/device",
		deviceCode: true,
		defaultURL: "https://" + g.platform.Host + "/login/device",
		opener:     g.opener,
		notify:     g.notify,
	}
	return flow.run(ctx, g.runner, cmd.Command{
		Name: "gh",
		Args: []string{"auth", "login", "--web", "--git-protocol", "https", "--hostname", g.platform.Host},
		// Answers gh's "Press Enter to open ... in your browser" prompt.
		Stdin: strings.NewReader("\n"),
	})
}

// GetToken returns the token gh stored for the host.
func (g *GitHub) GetToken(ctx context.Context) (string, error) {
	out, err := g.gh(ctx, "", "auth", "token", "--hostname", g.platform.Host)
	if err != nil {
		return "", g.fail("get token", errors.WithHint(
			errors.Mark(err, ErrNotAuthenticated),
			"run 'gh auth login --hostname "+g.platform.Host+"'"))
	}
	token := strings.TrimSpace(string(out))
	if token == "" {
		return "", g.fail("get token", ErrNotAuthenticated)
	}
	return token, nil
}

// GetUser returns the authenticated GitHub user.
func (g *GitHub) GetUser(ctx context.Context) (*User, error) {
	out, err := g.api(ctx, "user")
	if err != nil {
		return nil, g.fail("get user", err)
	}
	var u struct {
		Login     string `json:"login"`
		Name      string `json:"name"`
		AvatarURL string `json:"avatar_url"`
	}
	if err := json.Unmarshal(out, &u); err != nil {
		return nil, g.fail("get user", errors.Wrap(err, "parse gh output"))
	}
	if u.Login == "" {
		return nil, g.fail("get user", errors.New("empty login in gh output"))
	}
	return &User{Username: u.Login, Name: u.Name, AvatarURL: u.AvatarURL}, nil
}

// ListRepos lists repositories owned by the authenticated user.
func (g *GitHub) ListRepos(ctx context.Context, limit int) ([]Repository, error) {
	out, err := g.gh(ctx, "", "repo", "list",
		"--limit", strconv.Itoa(limitOrDefault(limit)),
		"--json", "nameWithOwner,description,isPrivate,url,defaultBranchRef,updatedAt")
	if err != nil {
		return nil, g.fail("list repos", err)
	}

	var repos []struct {
		NameWithOwner    string    `json:"nameWithOwner"`
		Description      string    `json:"description"`
		IsPrivate        bool      `json:"isPrivate"`
		URL              string    `json:"url"`
		UpdatedAt        time.Time `json:"updatedAt"`
		DefaultBranchRef struct {
			Name string `json:"name"`
		} `json:"defaultBranchRef"`
	}
	if err := json.Unmarshal(out, &repos); err != nil {
		return nil, g.fail("list repos", errors.Wrap(err, "parse gh output"))
	}

	result := make([]Repository, 0, len(repos))
	for _, r := range repos {
		result = append(result, Repository{
			FullName:      r.NameWithOwner,
			Description:   r.Description,
			Private:       r.IsPrivate,
			URL:           r.URL,
			DefaultBranch: r.DefaultBranchRef.Name,
			UpdatedAt:     r.UpdatedAt,
		})
	}
	return result, nil
}

// DetectRepo returns owner/repo of projectPath's remote when it points at
// the adapter's host.
func (g *GitHub) DetectRepo(ctx context.Context, projectPath string) (string, bool) {
	return remoteFullName(ctx, g.runner, projectPath, g.remote, g.platform.Host)
}

// GetBranches lists all branch names of a repository.
func (g *GitHub) GetBranches(ctx context.Context, fullName string) ([]string, error) {
	out, err := g.api(ctx, "repos/"+fullName+"/branches", "--paginate", "--jq", ".[].name")
	if err != nil {
		return nil, g.fail("get branches", err)
	}
	return nonEmptyLines(out), nil
}

// CreateRepo creates a repository with gh repo create.
func (g *GitHub) CreateRepo(ctx context.Context, opts CreateRepoOptions) (*CreatedRepo, error) {
	if opts.Name == "" {
		return nil, g.fail("create repo", errors.New("repository name is required"))
	}

	name := opts.Name
	if opts.Owner != "" {
		name = opts.Owner + "/" + opts.Name
	}
	args := []string{"repo", "create", name}
	if opts.Private {
		args = append(args, "--private")
	} else {
		args = append(args, "--public")
	}
	if opts.Description != "" {
		args = append(args, "--description", opts.Description)
	}

	out, err := g.gh(ctx, "", args...)
	if err != nil {
		return nil, g.fail("create repo", err)
	}

	// gh prints the new repository's URL.
	url := lastNonEmptyLine(out)
	fullName := name
	if p := ParseRemoteURL(url); p != nil {
		fullName = p.FullName
	}
	if url == "" {
		url = "https://" + g.platform.Host + "/" + fullName
	}
	return &CreatedRepo{FullName: fullName, URL: url}, nil
}

// AddGitRemote sets projectPath's remote to the HTTPS URL of fullName.
func (g *GitHub) AddGitRemote(ctx context.Context, projectPath, fullName string) (string, error) {
	remoteURL := "https://" + g.platform.Host + "/" + fullName + ".git"
	if err := setRemote(ctx, g.runner, projectPath, g.remote, remoteURL); err != nil {
		return "", g.fail("add git remote", err)
	}
	return remoteURL, nil
}

// ListOrganizations lists the user's organizations. Errors yield an empty list.
func (g *GitHub) ListOrganizations(ctx context.Context) []Organization {
	out, err := g.api(ctx, "user/orgs", "--paginate")
	if err != nil {
		return []Organization{}
	}
	orgs, err := decodeArrays[struct {
		ID          int64  `json:"id"`
		Login       string `json:"login"`
		Description string `json:"description"`
		AvatarURL   string `json:"avatar_url"`
	}](out)
	if err != nil {
		return []Organization{}
	}

	result := make([]Organization, 0, len(orgs))
	for _, o := range orgs {
		result = append(result, Organization{
			ID:          strconv.FormatInt(o.ID, 10),
			Name:        o.Login,
			FullPath:    o.Login,
			Description: o.Description,
			AvatarURL:   o.AvatarURL,
		})
	}
	return result
}

// GetReleaseURL returns the URL of the release for tagName, or "".
func (g *GitHub) GetReleaseURL(ctx context.Context, projectPath, tagName string) string {
	fullName := g.releaseRepo(ctx, projectPath)
	if fullName == "" {
		return ""
	}
	out, err := g.gh(ctx, projectPath, "release", "view", tagName,
		"-R", g.repoArg(fullName),
		"--json", "url", "--jq", ".url")
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}

// releaseRepo prefers the repository checked out at projectPath. It is
// empty when neither that nor the platform names a repository.
func (g *GitHub) releaseRepo(ctx context.Context, projectPath string) string {
	if projectPath != "" {
		if fullName, ok := g.DetectRepo(ctx, projectPath); ok {
			return fullName
		}
	}
	return g.platform.FullName
}

// CreateRelease creates a GitHub release.
func (g *GitHub) CreateRelease(ctx context.Context, opts ReleaseOptions) ReleaseResult {
	if opts.TagName == "" {
		return ReleaseResult{Error: "tag name is required"}
	}
	fullName := g.releaseRepo(ctx, opts.ProjectPath)
	if fullName == "" {
		return ReleaseResult{TagName: opts.TagName, Error: g.fail("create release", ErrNoRepository).Error()}
	}

	args := []string{"release", "create", opts.TagName,
		"-R", g.repoArg(fullName),
		"--title", orDefault(opts.Title, opts.TagName),
		"--notes", opts.Notes,
	}
	if opts.Target != "" {
		args = append(args, "--target", opts.Target)
	}
	if opts.Draft {
		args = append(args, "--draft")
	}
	if opts.Prerelease {
		args = append(args, "--prerelease")
	}

	out, err := g.gh(ctx, opts.ProjectPath, args...)
	if err != nil {
		return ReleaseResult{TagName: opts.TagName, Error: g.fail("create release", err).Error()}
	}

	url := lastNonEmptyLine(out)
	if !strings.HasPrefix(url, "http") {
		url = g.GetReleaseURL(ctx, opts.ProjectPath, opts.TagName)
	}
	return ReleaseResult{Success: true, ReleaseURL: url, TagName: opts.TagName}
}

type ghIssue struct {
	Number int    `json:"number"`
	Title  string `json:"title"`
	Body   string `json:"body"`
	State  string `json:"state"`
	URL    string `json:"url"`
	Labels []struct {
		Name string `json:"name"`
	} `json:"labels"`
	Author struct {
		Login string `json:"login"`
	} `json:"author"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

const ghIssueFields = "number,title,body,state,url,labels,author,createdAt,updatedAt"

func (i ghIssue) toIssue() Issue {
	labels := make([]string, 0, len(i.Labels))
	for _, l := range i.Labels {
		labels = append(labels, l.Name)
	}
	return Issue{
		Number:    i.Number,
		Title:     i.Title,
		Body:      i.Body,
		State:     strings.ToLower(i.State),
		Labels:    labels,
		Author:    i.Author.Login,
		URL:       i.URL,
		CreatedAt: i.CreatedAt,
		UpdatedAt: i.UpdatedAt,
	}
}

// ListIssues lists issues with gh issue list.
func (g *GitHub) ListIssues(ctx context.Context, fullName string, opts IssueListOptions) ([]Issue, error) {
	out, err := g.gh(ctx, "", "issue", "list",
		"-R", g.repoArg(fullName),
		"--state", orDefault(opts.State, StateOpen),
		"--limit", strconv.Itoa(limitOrDefault(opts.Limit)),
		"--json", ghIssueFields)
	if err != nil {
		return nil, g.fail("list issues", err)
	}

	var issues []ghIssue
	if err := json.Unmarshal(out, &issues); err != nil {
		return nil, g.fail("list issues", errors.Wrap(err, "parse gh output"))
	}
	result := make([]Issue, 0, len(issues))
	for _, i := range issues {
		result = append(result, i.toIssue())
	}
	return result, nil
}

// GetIssue fetches one issue with gh issue view.
func (g *GitHub) GetIssue(ctx context.Context, fullName string, number int) (*Issue, error) {
	out, err := g.gh(ctx, "", "issue", "view", strconv.Itoa(number),
		"-R", g.repoArg(fullName),
		"--json", ghIssueFields)
	if err != nil {
		return nil, g.fail(fmt.Sprintf("get issue #%d", number), err)
	}

	var i ghIssue
	if err := json.Unmarshal(out, &i); err != nil {
		return nil, g.fail(fmt.Sprintf("get issue #%d", number), errors.Wrap(err, "parse gh output"))
	}
	issue := i.toIssue()
	return &issue, nil
}

// CommentOnIssue posts a comment with gh issue comment.
func (g *GitHub) CommentOnIssue(ctx context.Context, fullName string, number int, body string) error {
	_, err := g.gh(ctx, "", "issue", "comment", strconv.Itoa(number),
		"-R", g.repoArg(fullName),
		"--body", body)
	if err != nil {
		return g.fail(fmt.Sprintf("comment on issue #%d", number), err)
	}
	return nil
}

// ListPullRequests lists pull requests with gh pr list.
func (g *GitHub) ListPullRequests(ctx context.Context, fullName, state string, limit int) ([]PullRequest, error) {
	out, err := g.gh(ctx, "", "pr", "list",
		"-R", g.repoArg(fullName),
		"--state", orDefault(state, StateOpen),
		"--limit", strconv.Itoa(limitOrDefault(limit)),
		"--json", "number,title,state,isDraft,author,headRefName,baseRefName,url")
	if err != nil {
		return nil, g.fail("list pull requests", err)
	}

	var prs []struct {
		Number      int    `json:"number"`
		Title       string `json:"title"`
		State       string `json:"state"` // OPEN, CLOSED, MERGED
		IsDraft     bool   `json:"isDraft"`
		HeadRefName string `json:"headRefName"`
		BaseRefName string `json:"baseRefName"`
		URL         string `json:"url"`
		Author      struct {
			Login string `json:"login"`
		} `json:"author"`
	}
	if err := json.Unmarshal(out, &prs); err != nil {
		return nil, g.fail("list pull requests", errors.Wrap(err, "parse gh output"))
	}

	result := make([]PullRequest, 0, len(prs))
	for _, pr := range prs {
		result = append(result, PullRequest{
			Number:     pr.Number,
			Title:      pr.Title,
			State:      strings.ToLower(pr.State),
			Draft:      pr.IsDraft,
			Author:     pr.Author.Login,
			HeadBranch: pr.HeadRefName,
			BaseBranch: pr.BaseRefName,
			URL:        pr.URL,
		})
	}
	return result, nil
}

// orDefault returns s, or fallback when s is empty.
func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
