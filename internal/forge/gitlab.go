package forge

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/raphi011/forgectl/internal/browser"
	"github.com/raphi011/forgectl/internal/cmd"
	"github.com/raphi011/forgectl/internal/log"
)

// GitLab implements Adapter using the glab CLI.
type GitLab struct {
	platform   Platform
	runner     cmd.Runner
	opener     browser.Opener
	notify     func(AuthResult)
	projectIDs *ProjectIDCache
	configDir  string // glab config directory holding config.yml
	tempDir    string // where release notes files are written
	remote     string
}

var _ Adapter = (*GitLab)(nil)

// NewGitLab creates a GitLab adapter for p.
func NewGitLab(p Platform, deps Deps) *GitLab {
	deps = deps.withDefaults()
	return &GitLab{
		platform:   p,
		runner:     deps.Runner,
		opener:     deps.Browser,
		notify:     deps.OnLoginPrompt,
		projectIDs: deps.ProjectIDs,
		configDir:  deps.GlabConfigDir,
		tempDir:    deps.TempDir,
		remote:     deps.Remote,
	}
}

// Platform returns the platform descriptor.
func (g *GitLab) Platform() Platform { return g.platform }

// Type returns TypeGitLab.
func (g *GitLab) Type() PlatformType { return TypeGitLab }

// CLIName returns "glab".
func (g *GitLab) CLIName() string { return "glab" }

// glab runs the glab CLI. On self-hosted instances GITLAB_HOST is set for
// every invocation and "api"/"auth" commands get --hostname, since glab
// otherwise talks to gitlab.com.
func (g *GitLab) glab(ctx context.Context, dir string, args ...string) ([]byte, error) {
	c := cmd.Command{Dir: dir, Name: "glab", Args: g.hostArgs(args)}
	if g.platform.IsSelfHosted {
		c.Env = []string{"GITLAB_HOST=" + g.platform.Host}
	}
	return g.runner.Output(ctx, c)
}

func (g *GitLab) hostArgs(args []string) []string {
	if !g.platform.IsSelfHosted || len(args) == 0 {
		return args
	}
	if args[0] != "api" && args[0] != "auth" {
		return args
	}
	if slices.Contains(args, "--hostname") {
		return args
	}
	return append(slices.Clone(args), "--hostname", g.platform.Host)
}

func (g *GitLab) api(ctx context.Context, endpoint string, extra ...string) ([]byte, error) {
	return g.glab(ctx, "", append([]string{"api", endpoint}, extra...)...)
}

// listAPI fetches a list endpoint that already carries per_page. Limits
// above one page follow every page; callers trim to the limit.
func (g *GitLab) listAPI(ctx context.Context, endpoint string, limit int) ([]byte, error) {
	if limit > 100 {
		return g.api(ctx, endpoint, "--paginate")
	}
	return g.api(ctx, endpoint)
}

// repoArg formats fullName for -R. glab accepts full URLs, which carry the
// host for self-hosted instances.
func (g *GitLab) repoArg(fullName string) string {
	if g.platform.IsSelfHosted {
		return "https://" + g.platform.Host + "/" + fullName
	}
	return fullName
}

func (g *GitLab) fail(op string, err error) error {
	return opError(TypeGitLab, op, err)
}

// projectID resolves fullName to GitLab's numeric project id, caching it.
func (g *GitLab) projectID(ctx context.Context, fullName string) (int, error) {
	key := g.platform.Host + "/" + fullName
	if id, ok := g.projectIDs.Get(key); ok {
		return id, nil
	}

	out, err := g.api(ctx, "projects/"+url.PathEscape(fullName))
	if err != nil {
		return 0, errors.Wrapf(err, "resolve project %s", fullName)
	}
	var project struct {
		ID int `json:"id"`
	}
	if err := json.Unmarshal(out, &project); err != nil {
		return 0, errors.Wrapf(err, "parse project %s", fullName)
	}
	if project.ID == 0 {
		return 0, errors.Newf("project %s has no id", fullName)
	}

	g.projectIDs.Set(key, project.ID)
	log.FromContext(ctx).Debug("resolved gitlab project", "project", key, "id", project.ID)
	return project.ID, nil
}

// CheckCLIInstalled checks that glab is on PATH and reads its version.
func (g *GitLab) CheckCLIInstalled(ctx context.Context) CLIStatus {
	if _, err := g.runner.LookPath("glab"); err != nil {
		return CLIStatus{}
	}
	out, err := g.glab(ctx, "", "--version")
	if err != nil {
		return CLIStatus{Installed: true}
	}
	return CLIStatus{Installed: true, Version: parseVersion(string(out))}
}

// CheckAuthentication checks that glab is logged in to the platform host.
// The host is always named; without it glab checks every configured host.
func (g *GitLab) CheckAuthentication(ctx context.Context) AuthStatus {
	if _, err := g.glab(ctx, "", "auth", "status", "--hostname", g.platform.Host); err != nil {
		return AuthStatus{}
	}
	status := AuthStatus{Authenticated: true}
	if u, err := g.GetUser(ctx); err == nil {
		status.Username = u.Username
	}
	return status
}

// StartAuth runs "glab auth login --web" and opens the authorization URL
// for the platform host once glab prints it.
func (g *GitLab) StartAuth(ctx context.Context) AuthResult {
	flow := &loginFlow{host: g.platform.Host, authPath: "/oauth/", opener: g.opener, notify: g.notify}
	c := cmd.Command{
		Name: "glab",
		Args: []string{"auth", "login", "--hostname", g.platform.Host, "--web", "--git-protocol", "https"},
	}
	if g.platform.IsSelfHosted {
		c.Env = []string{"GITLAB_HOST=" + g.platform.Host}
	}
	return flow.run(ctx, g.runner, c)
}

// GetToken reads the token glab stored for the host from its config.yml.
func (g *GitLab) GetToken(ctx context.Context) (string, error) {
	token, err := readGlabToken(g.configDir, g.platform.Host)
	if err != nil {
		return "", g.fail("get token", err)
	}
	return token, nil
}

// GetUser returns the authenticated GitLab user.
func (g *GitLab) GetUser(ctx context.Context) (*User, error) {
	out, err := g.api(ctx, "user")
	if err != nil {
		return nil, g.fail("get user", err)
	}
	var u struct {
		Username  string `json:"username"`
		Name      string `json:"name"`
		AvatarURL string `json:"avatar_url"`
	}
	if err := json.Unmarshal(out, &u); err != nil {
		return nil, g.fail("get user", errors.Wrap(err, "parse glab output"))
	}
	if u.Username == "" {
		return nil, g.fail("get user", errors.New("empty username in glab output"))
	}
	return &User{Username: u.Username, Name: u.Name, AvatarURL: u.AvatarURL}, nil
}

type glProject struct {
	ID                int       `json:"id"`
	PathWithNamespace string    `json:"path_with_namespace"`
	Description       string    `json:"description"`
	Visibility        string    `json:"visibility"`
	WebURL            string    `json:"web_url"`
	DefaultBranch     string    `json:"default_branch"`
	LastActivityAt    time.Time `json:"last_activity_at"`
}

// ListRepos lists projects the user is a member of, most recently active first.
func (g *GitLab) ListRepos(ctx context.Context, limit int) ([]Repository, error) {
	limit = limitOrDefault(limit)
	endpoint := fmt.Sprintf("projects?membership=true&order_by=last_activity_at&per_page=%d", min(limit, 100))
	out, err := g.listAPI(ctx, endpoint, limit)
	if err != nil {
		return nil, g.fail("list repos", err)
	}
	projects, err := decodeArrays[glProject](out)
	if err != nil {
		return nil, g.fail("list repos", err)
	}

	if len(projects) > limit {
		projects = projects[:limit]
	}
	result := make([]Repository, 0, len(projects))
	for _, p := range projects {
		if p.ID != 0 {
			g.projectIDs.Set(g.platform.Host+"/"+p.PathWithNamespace, p.ID)
		}
		result = append(result, Repository{
			FullName:      p.PathWithNamespace,
			Description:   p.Description,
			Private:       p.Visibility != "public",
			URL:           p.WebURL,
			DefaultBranch: p.DefaultBranch,
			UpdatedAt:     p.LastActivityAt,
		})
	}
	return result, nil
}

// DetectRepo returns the project path of projectPath's remote when it
// points at the adapter's host.
func (g *GitLab) DetectRepo(ctx context.Context, projectPath string) (string, bool) {
	return remoteFullName(ctx, g.runner, projectPath, g.remote, g.platform.Host)
}

// GetBranches lists all branch names of a project.
func (g *GitLab) GetBranches(ctx context.Context, fullName string) ([]string, error) {
	id, err := g.projectID(ctx, fullName)
	if err != nil {
		return nil, g.fail("get branches", err)
	}

	out, err := g.api(ctx, fmt.Sprintf("projects/%d/repository/branches?per_page=100", id), "--paginate")
	if err != nil {
		return nil, g.fail("get branches", err)
	}
	branches, err := decodeArrays[struct {
		Name string `json:"name"`
	}](out)
	if err != nil {
		return nil, g.fail("get branches", err)
	}

	names := make([]string, 0, len(branches))
	for _, b := range branches {
		names = append(names, b.Name)
	}
	return names, nil
}

// CreateRepo creates a project with glab repo create and looks it up
// afterwards, since glab's create output is meant for humans.
func (g *GitLab) CreateRepo(ctx context.Context, opts CreateRepoOptions) (*CreatedRepo, error) {
	if opts.Name == "" {
		return nil, g.fail("create repo", errors.New("repository name is required"))
	}

	namespace := opts.Owner
	if namespace == "" {
		u, err := g.GetUser(ctx)
		if err != nil {
			return nil, g.fail("create repo", errors.Wrap(err, "resolve personal namespace"))
		}
		namespace = u.Username
	}

	args := []string{"repo", "create", opts.Name}
	if opts.Owner != "" {
		args = append(args, "--group", opts.Owner)
	}
	if opts.Private {
		args = append(args, "--private")
	} else {
		args = append(args, "--public")
	}
	if opts.Description != "" {
		args = append(args, "--description", opts.Description)
	}
	if _, err := g.glab(ctx, "", args...); err != nil {
		return nil, g.fail("create repo", err)
	}

	fullName := namespace + "/" + opts.Name
	out, err := g.api(ctx, "projects/"+url.PathEscape(fullName))
	if err != nil {
		// Created, but the lookup failed: fall back to the conventional URL.
		return &CreatedRepo{FullName: fullName, URL: "https://" + g.platform.Host + "/" + fullName}, nil
	}
	var p glProject
	if err := json.Unmarshal(out, &p); err != nil || p.PathWithNamespace == "" {
		return &CreatedRepo{FullName: fullName, URL: "https://" + g.platform.Host + "/" + fullName}, nil
	}
	if p.ID != 0 {
		g.projectIDs.Set(g.platform.Host+"/"+p.PathWithNamespace, p.ID)
	}
	return &CreatedRepo{FullName: p.PathWithNamespace, URL: p.WebURL}, nil
}

// AddGitRemote sets projectPath's remote to the HTTPS URL of fullName.
func (g *GitLab) AddGitRemote(ctx context.Context, projectPath, fullName string) (string, error) {
	remoteURL := "https://" + g.platform.Host + "/" + fullName + ".git"
	if err := setRemote(ctx, g.runner, projectPath, g.remote, remoteURL); err != nil {
		return "", g.fail("add git remote", err)
	}
	return remoteURL, nil
}

// ListOrganizations lists groups the user belongs to. Errors yield an empty list.
func (g *GitLab) ListOrganizations(ctx context.Context) []Organization {
	out, err := g.api(ctx, "groups?min_access_level=10&per_page=100", "--paginate")
	if err != nil {
		return []Organization{}
	}
	groups, err := decodeArrays[struct {
		ID          int    `json:"id"`
		Name        string `json:"name"`
		FullPath    string `json:"full_path"`
		Description string `json:"description"`
		AvatarURL   string `json:"avatar_url"`
	}](out)
	if err != nil {
		return []Organization{}
	}

	result := make([]Organization, 0, len(groups))
	for _, grp := range groups {
		result = append(result, Organization{
			ID:          strconv.Itoa(grp.ID),
			Name:        grp.Name,
			FullPath:    grp.FullPath,
			Description: grp.Description,
			AvatarURL:   grp.AvatarURL,
		})
	}
	return result
}

// releaseProject prefers the project checked out at projectPath. It is
// empty when neither that nor the platform names a project.
func (g *GitLab) releaseProject(ctx context.Context, projectPath string) string {
	if projectPath != "" {
		if fullName, ok := g.DetectRepo(ctx, projectPath); ok {
			return fullName
		}
	}
	return g.platform.FullName
}

// GetReleaseURL returns the URL of the release for tagName, or "".
func (g *GitLab) GetReleaseURL(ctx context.Context, projectPath, tagName string) string {
	fullName := g.releaseProject(ctx, projectPath)
	if fullName == "" {
		return ""
	}
	id, err := g.projectID(ctx, fullName)
	if err != nil {
		return ""
	}
	out, err := g.api(ctx, fmt.Sprintf("projects/%d/releases/%s", id, url.PathEscape(tagName)))
	if err != nil {
		return ""
	}
	var release struct {
		Links struct {
			Self string `json:"self"`
		} `json:"_links"`
	}
	if err := json.Unmarshal(out, &release); err != nil {
		return ""
	}
	return release.Links.Self
}

// CreateRelease creates a GitLab release. glab only reads notes from a
// file, so they are written to a temporary file that is removed on return.
func (g *GitLab) CreateRelease(ctx context.Context, opts ReleaseOptions) ReleaseResult {
	if opts.TagName == "" {
		return ReleaseResult{Error: "tag name is required"}
	}
	fullName := g.releaseProject(ctx, opts.ProjectPath)
	if fullName == "" {
		return ReleaseResult{TagName: opts.TagName, Error: g.fail("create release", ErrNoRepository).Error()}
	}

	notesPath, cleanup, err := writeNotesFile(g.tempDir, opts.Notes)
	if err != nil {
		return ReleaseResult{TagName: opts.TagName, Error: g.fail("create release", err).Error()}
	}
	defer cleanup()

	args := []string{"release", "create", opts.TagName,
		"-R", g.repoArg(fullName),
		"--name", orDefault(opts.Title, opts.TagName),
		"--notes-file", notesPath,
	}
	if opts.Target != "" {
		args = append(args, "--ref", opts.Target)
	}

	if _, err := g.glab(ctx, opts.ProjectPath, args...); err != nil {
		return ReleaseResult{TagName: opts.TagName, Error: g.fail("create release", err).Error()}
	}

	releaseURL := g.GetReleaseURL(ctx, opts.ProjectPath, opts.TagName)
	if releaseURL == "" {
		releaseURL = "https://" + g.platform.Host + "/" + fullName + "/-/releases/" + url.PathEscape(opts.TagName)
	}
	return ReleaseResult{Success: true, ReleaseURL: releaseURL, TagName: opts.TagName}
}

// writeNotesFile writes notes to a uniquely named file in dir and returns
// its path and a function removing it.
func writeNotesFile(dir, notes string) (string, func(), error) {
	pattern := fmt.Sprintf("forgectl-release-notes-%d-*.md", time.Now().UnixNano())
	f, err := os.CreateTemp(dir, pattern)
	if err != nil {
		return "", nil, errors.Wrap(err, "create release notes file")
	}
	path := f.Name()
	cleanup := func() { _ = os.Remove(path) }

	if _, err := f.WriteString(notes); err != nil {
		_ = f.Close()
		cleanup()
		return "", nil, errors.Wrap(err, "write release notes file")
	}
	if err := f.Close(); err != nil {
		cleanup()
		return "", nil, errors.Wrap(err, "close release notes file")
	}
	return path, cleanup, nil
}

type glIssue struct {
	IID         int      `json:"iid"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	State       string   `json:"state"` // opened, closed
	Labels      []string `json:"labels"`
	WebURL      string   `json:"web_url"`
	Author      struct {
		Username string `json:"username"`
	} `json:"author"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (i glIssue) toIssue() Issue {
	return Issue{
		Number:    i.IID,
		Title:     i.Title,
		Body:      i.Description,
		State:     normalizeGitLabState(i.State),
		Labels:    i.Labels,
		Author:    i.Author.Username,
		URL:       i.WebURL,
		CreatedAt: i.CreatedAt,
		UpdatedAt: i.UpdatedAt,
	}
}

// ListIssues lists issues of a project.
func (g *GitLab) ListIssues(ctx context.Context, fullName string, opts IssueListOptions) ([]Issue, error) {
	id, err := g.projectID(ctx, fullName)
	if err != nil {
		return nil, g.fail("list issues", err)
	}

	limit := limitOrDefault(opts.Limit)
	endpoint := fmt.Sprintf("projects/%d/issues?per_page=%d%s",
		id, min(limit, 100), stateQuery(orDefault(opts.State, StateOpen)))
	out, err := g.listAPI(ctx, endpoint, limit)
	if err != nil {
		return nil, g.fail("list issues", err)
	}
	issues, err := decodeArrays[glIssue](out)
	if err != nil {
		return nil, g.fail("list issues", err)
	}
	if len(issues) > limit {
		issues = issues[:limit]
	}

	result := make([]Issue, 0, len(issues))
	for _, i := range issues {
		result = append(result, i.toIssue())
	}
	return result, nil
}

// GetIssue fetches one issue by its project-scoped number.
func (g *GitLab) GetIssue(ctx context.Context, fullName string, number int) (*Issue, error) {
	op := fmt.Sprintf("get issue #%d", number)
	id, err := g.projectID(ctx, fullName)
	if err != nil {
		return nil, g.fail(op, err)
	}

	out, err := g.api(ctx, fmt.Sprintf("projects/%d/issues/%d", id, number))
	if err != nil {
		return nil, g.fail(op, err)
	}
	var i glIssue
	if err := json.Unmarshal(out, &i); err != nil {
		return nil, g.fail(op, errors.Wrap(err, "parse glab output"))
	}
	issue := i.toIssue()
	return &issue, nil
}

// CommentOnIssue adds a note to an issue with glab issue note.
func (g *GitLab) CommentOnIssue(ctx context.Context, fullName string, number int, body string) error {
	_, err := g.glab(ctx, "", "issue", "note", strconv.Itoa(number),
		"-R", g.repoArg(fullName),
		"--message", body)
	if err != nil {
		return g.fail(fmt.Sprintf("comment on issue #%d", number), err)
	}
	return nil
}

// ListPullRequests lists merge requests of a project.
func (g *GitLab) ListPullRequests(ctx context.Context, fullName, state string, limit int) ([]PullRequest, error) {
	id, err := g.projectID(ctx, fullName)
	if err != nil {
		return nil, g.fail("list merge requests", err)
	}

	limit = limitOrDefault(limit)
	endpoint := fmt.Sprintf("projects/%d/merge_requests?per_page=%d%s",
		id, min(limit, 100), stateQuery(orDefault(state, StateOpen)))
	out, err := g.listAPI(ctx, endpoint, limit)
	if err != nil {
		return nil, g.fail("list merge requests", err)
	}
	mrs, err := decodeArrays[struct {
		IID          int    `json:"iid"`
		Title        string `json:"title"`
		State        string `json:"state"`
		Draft        bool   `json:"draft"`
		SourceBranch string `json:"source_branch"`
		TargetBranch string `json:"target_branch"`
		WebURL       string `json:"web_url"`
		Author       struct {
			Username string `json:"username"`
		} `json:"author"`
	}](out)
	if err != nil {
		return nil, g.fail("list merge requests", err)
	}
	if len(mrs) > limit {
		mrs = mrs[:limit]
	}

	result := make([]PullRequest, 0, len(mrs))
	for _, mr := range mrs {
		result = append(result, PullRequest{
			Number:     mr.IID,
			Title:      mr.Title,
			State:      normalizeGitLabState(mr.State),
			Draft:      mr.Draft,
			Author:     mr.Author.Username,
			HeadBranch: mr.SourceBranch,
			BaseBranch: mr.TargetBranch,
			URL:        mr.WebURL,
		})
	}
	return result, nil
}

// stateQuery maps a normalized state to GitLab's state query parameter.
func stateQuery(state string) string {
	switch state {
	case StateAll:
		return ""
	case StateOpen:
		return "&state=opened"
	default:
		return "&state=" + url.QueryEscape(state)
	}
}

// normalizeGitLabState converts GitLab states to the shared lowercase names.
func normalizeGitLabState(state string) string {
	switch strings.ToLower(state) {
	case "opened":
		return StateOpen
	case "merged":
		return StateMerged
	case "closed":
		return StateClosed
	default:
		return strings.ToLower(state)
	}
}
