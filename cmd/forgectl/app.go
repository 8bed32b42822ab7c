package main

import (
	"cmp"
	"context"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/raphi011/forgectl/internal/browser"
	runcmd "github.com/raphi011/forgectl/internal/cmd"
	"github.com/raphi011/forgectl/internal/config"
	"github.com/raphi011/forgectl/internal/forge"
	"github.com/raphi011/forgectl/internal/log"
)

// app bundles the collaborators commands share.
type app struct {
	runner  runcmd.Runner
	factory *forge.Factory

	mu          sync.Mutex
	loginPrompt func(forge.AuthResult)
}

type appKey struct{}

// newApp wires the detector and adapter factory from cfg.
func newApp(cfg *config.Config, runner runcmd.Runner) *app {
	a := &app{runner: runner}

	detector := forge.NewDetector(runner,
		forge.WithRemote(cfg.Remote),
		forge.WithHostOverrides(hostOverrides(cfg.Hosts)))

	a.factory = forge.NewFactory(detector, forge.Deps{
		Runner:        runner,
		Browser:       browser.System{Command: cfg.Browser},
		GlabConfigDir: cfg.GlabConfigDir,
		OnLoginPrompt: a.onLoginPrompt,
	})
	return a
}

// hostOverrides converts validated config host mappings.
func hostOverrides(hosts map[string]string) map[string]forge.PlatformType {
	out := make(map[string]forge.PlatformType, len(hosts))
	for host, name := range hosts {
		if t, ok := forge.ParseType(name); ok {
			out[host] = t
		}
	}
	return out
}

func (a *app) setLoginPrompt(fn func(forge.AuthResult)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.loginPrompt = fn
}

func (a *app) onLoginPrompt(r forge.AuthResult) {
	a.mu.Lock()
	fn := a.loginPrompt
	a.mu.Unlock()
	if fn != nil {
		fn(r)
	}
}

func (a *app) detector() *forge.Detector {
	return a.factory.Detector()
}

func withApp(ctx context.Context, a *app) context.Context {
	return context.WithValue(ctx, appKey{}, a)
}

// appFromContext returns the app stored in ctx, or one built from the
// context config and the real process runner.
func appFromContext(ctx context.Context) *app {
	if a, ok := ctx.Value(appKey{}).(*app); ok {
		return a
	}
	cfg := config.FromContext(ctx)
	if cfg == nil {
		d := config.Default()
		cfg = &d
	}
	return newApp(cfg, runcmd.Exec{})
}

// targetFlags select the platform a command talks to. Without --platform
// the platform is detected from the project's git remote.
type targetFlags struct {
	remote   string
	refresh  bool
	platform string
	hostname string
	repo     string
}

func (f *targetFlags) register(cmd *cobra.Command, withRepo bool) {
	cmd.Flags().StringVar(&f.remote, "remote", "", "Git remote to detect the platform from")
	cmd.Flags().BoolVar(&f.refresh, "refresh", false, "Ignore cached detection results")
	cmd.Flags().StringVarP(&f.platform, "platform", "p", "", "Skip detection and use this platform (github, gitlab)")
	cmd.Flags().StringVar(&f.hostname, "hostname", "", "Instance host for --platform (default github.com / gitlab.com)")
	_ = cmd.RegisterFlagCompletionFunc("platform", cobra.FixedCompletions(config.ValidForgeTypes, cobra.ShellCompDirectiveNoFileComp))
	if withRepo {
		cmd.Flags().StringVarP(&f.repo, "repo", "R", "", "Repository as owner/repo (default: the project's remote)")
	}
}

// target is a resolved adapter plus the repository commands operate on.
type target struct {
	adapter     forge.Adapter
	fullName    string // may be empty when nothing names a repository
	projectPath string
	remote      string // git remote the adapter reads and writes
}

// requireRepo returns the repository name or a usage error.
func (t target) requireRepo() (string, error) {
	if t.fullName == "" {
		return "", errors.WithHint(
			errors.New("no repository selected"),
			"pass --repo owner/repo or run inside a project with a remote")
	}
	return t.fullName, nil
}

func (f *targetFlags) resolve(ctx context.Context) (target, error) {
	a := appFromContext(ctx)
	dir := config.WorkDirFromContext(ctx)
	l := log.FromContext(ctx)

	pcfg := config.FromContext(ctx)
	if r := config.ResolverFromContext(ctx); r != nil {
		local, err := r.ConfigForProject(dir)
		if err != nil {
			return target{}, err
		}
		pcfg = local
	}

	remote := f.remote
	if remote == "" && pcfg != nil {
		remote = pcfg.Remote
	}
	remote = cmp.Or(remote, forge.DefaultRemote)
	factory := a.factory.WithRemote(remote)

	if f.platform != "" {
		t, ok := forge.ParseType(f.platform)
		if !ok {
			return target{}, errors.WithHint(
				errors.Wrapf(forge.ErrUnsupportedPlatform, "%q", f.platform),
				"use github or gitlab")
		}
		host := strings.ToLower(f.hostname)
		if host == "" {
			host = defaultHost(t)
		}
		owner, repo := splitFullName(f.repo)
		adapter, err := factory.CreateAdapter(forge.NewPlatform(t, host, owner, repo))
		if err != nil {
			return target{}, err
		}
		return target{adapter: adapter, fullName: f.repo, projectPath: dir, remote: remote}, nil
	}

	adapter, err := factory.GetAdapterWith(ctx, dir, forge.DetectOptions{RemoteName: remote, ForceRefresh: f.refresh})
	if errors.Is(err, forge.ErrPlatformNotDetected) {
		return target{}, errors.WithHint(err, "check 'git remote -v', or pass --platform github|gitlab")
	}
	if err != nil {
		return target{}, err
	}

	if pcfg != nil {
		p := adapter.Platform()
		if t, ok := forge.ParseType(pcfg.Hosts[p.Host]); ok && t != p.Type {
			l.Debug("host override", "host", p.Host, "type", t)
			if adapter, err = factory.CreateAdapter(p.WithType(t)); err != nil {
				return target{}, err
			}
		}
	}

	fullName := f.repo
	if fullName == "" {
		fullName = adapter.Platform().FullName
	}
	return target{adapter: adapter, fullName: fullName, projectPath: dir, remote: remote}, nil
}

func defaultHost(t forge.PlatformType) string {
	if t == forge.TypeGitHub {
		return forge.GitHubHost
	}
	return forge.GitLabHost
}

// splitFullName splits "group/sub/repo" into owner "group/sub" and repo.
func splitFullName(fullName string) (string, string) {
	i := strings.LastIndex(fullName, "/")
	if i < 0 {
		return "", fullName
	}
	return fullName[:i], fullName[i+1:]
}
