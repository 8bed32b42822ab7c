// Package forge provides an abstraction layer for git hosting platforms.
//
// The package supports GitHub (via gh CLI) and GitLab (via glab CLI), so
// callers work with one contract no matter where a project is hosted.
//
// # Platform Detection
//
// [ParseRemoteURL] turns a git remote URL into a [Platform]. It accepts
// HTTPS (https://host/owner/repo.git) and scp-style SSH
// (git@host:owner/repo.git) remotes; owners may contain nested groups.
// Hosts containing "github" are GitHub, every other host is assumed to be a
// GitLab instance, including self-hosted ones.
//
// A [Detector] reads a project's remote with git and caches the result per
// canonical path, including negative results:
//
//	d := forge.NewDetector(cmd.Exec{})
//	p := d.Detect(ctx, "/src/widgets", forge.DetectOptions{})
//	if p == nil {
//	    // not a GitHub/GitLab project
//	}
//
// Cached entries live until [Detector.ClearPath] or [Detector.Clear].
//
// # Adapter Interface
//
// The [Adapter] interface groups operations by concern:
//
//   - Identity: platform descriptor, type, CLI name
//   - CLI and auth lifecycle: install/auth checks, browser login, token, user
//   - Repositories: list, detect, branches, create, add remote
//   - Organizations (GitHub orgs, GitLab groups)
//   - Releases
//   - Work items: issues and pull/merge requests
//
// Use a [Factory] to get one:
//
//	f := forge.NewFactory(d, forge.Deps{})
//	a, err := f.GetAdapter(ctx, projectPath)
//
// # Error Handling
//
// Detection failures are nil results. CLI presence and authentication are
// reported as [CLIStatus] and [AuthStatus]. Single-entity and state-changing
// operations return an [*Error] naming the platform. [Adapter.ListOrganizations]
// degrades to an empty list; [Adapter.CreateRelease] and [Adapter.StartAuth]
// report failures inside their result values.
//
// # Platform Differences
//
//   - glab needs --hostname / GITLAB_HOST for self-hosted instances
//   - GitLab API subcommands address projects by numeric id, resolved once
//     per project and cached in a [ProjectIDCache]
//   - glab reads release notes from a file only
//   - glab's token is read from its config.yml rather than via the CLI
//
// Never call gh or glab directly outside this package.
package forge
