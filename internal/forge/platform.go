package forge

import (
	"regexp"
	"strings"
)

// PlatformType identifies a git hosting service.
type PlatformType string

const (
	TypeGitHub PlatformType = "github"
	TypeGitLab PlatformType = "gitlab"
)

// Public hosts. Anything else is self-hosted.
const (
	GitHubHost = "github.com"
	GitLabHost = "gitlab.com"
)

// Platform describes which hosting service and instance a repository lives on.
// Values are built by ParseRemoteURL or NewPlatform and never mutated.
type Platform struct {
	Type     PlatformType
	Host     string // lowercase hostname, e.g. "git.example.com"
	Owner    string // namespace, may contain "/" for nested groups
	Repo     string
	FullName string // Owner + "/" + Repo

	IsGitHub     bool
	IsGitLab     bool
	IsSelfHosted bool
}

// NewPlatform builds a consistent Platform value. FullName is empty when
// no repository is named.
func NewPlatform(t PlatformType, host, owner, repo string) Platform {
	host = strings.ToLower(host)
	fullName := owner + "/" + repo
	if owner == "" {
		fullName = repo
	}
	return Platform{
		Type:         t,
		Host:         host,
		Owner:        owner,
		Repo:         repo,
		FullName:     fullName,
		IsGitHub:     t == TypeGitHub,
		IsGitLab:     t == TypeGitLab,
		IsSelfHosted: host != GitHubHost && host != GitLabHost,
	}
}

// WithType returns a copy of p classified as t.
func (p Platform) WithType(t PlatformType) Platform {
	return NewPlatform(t, p.Host, p.Owner, p.Repo)
}

// WebURL returns the browser URL of the repository.
func (p Platform) WebURL() string {
	return "https://" + p.Host + "/" + p.FullName
}

func (p Platform) String() string {
	return string(p.Type) + ":" + p.Host + "/" + p.FullName
}

var (
	// https://host/owner[/sub...]/repo[.git]
	httpsRemote = regexp.MustCompile(`^https?://([^/@\s]+@)?([^/:\s]+)(:\d+)?/((?:[^/\s]+/)+)([^/\s]+?)(?:\.git)?/?$`)
	// git@host:owner[/sub...]/repo[.git]
	sshRemote = regexp.MustCompile(`^git@([^:/\s]+):((?:[^/\s]+/)+)([^/\s]+?)(?:\.git)?/?$`)
)

// thirdPartyHosts are public forges that are neither GitHub nor GitLab.
var thirdPartyHosts = map[string]bool{
	"bitbucket.org":     true,
	"codeberg.org":      true,
	"gitea.com":         true,
	"git.sr.ht":         true,
	"dev.azure.com":     true,
	"ssh.dev.azure.com": true,
}

// ParseRemoteURL parses a git remote URL (as printed by "git remote get-url")
// into a Platform. Returns nil when the URL is not an HTTPS or scp-style SSH
// remote or points at a forge other than GitHub or GitLab.
//
// Hosts containing "github" are GitHub. Every other host is assumed to be a
// (possibly self-hosted) GitLab instance.
func ParseRemoteURL(remoteURL string) *Platform {
	remoteURL = strings.TrimSpace(remoteURL)
	if remoteURL == "" {
		return nil
	}

	var host, owner, repo string
	if m := httpsRemote.FindStringSubmatch(remoteURL); m != nil {
		host, owner, repo = m[2], m[4], m[5]
	} else if m := sshRemote.FindStringSubmatch(remoteURL); m != nil {
		host, owner, repo = m[1], m[2], m[3]
	} else {
		return nil
	}

	host = strings.ToLower(host)
	owner = strings.TrimSuffix(owner, "/")
	if owner == "" || repo == "" || thirdPartyHosts[host] {
		return nil
	}

	p := NewPlatform(classifyHost(host), host, owner, repo)
	return &p
}

func classifyHost(host string) PlatformType {
	if host == GitHubHost || strings.Contains(host, "github") {
		return TypeGitHub
	}
	return TypeGitLab
}

// ParseType parses a platform name as used in configuration.
func ParseType(name string) (PlatformType, bool) {
	switch PlatformType(strings.ToLower(strings.TrimSpace(name))) {
	case TypeGitHub:
		return TypeGitHub, true
	case TypeGitLab:
		return TypeGitLab, true
	default:
		return "", false
	}
}
