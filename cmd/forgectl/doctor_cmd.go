package main

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	runcmd "github.com/raphi011/forgectl/internal/cmd"
	"github.com/raphi011/forgectl/internal/config"
	"github.com/raphi011/forgectl/internal/forge"
	"github.com/raphi011/forgectl/internal/output"
	"github.com/raphi011/forgectl/internal/ui/progress"
	"github.com/raphi011/forgectl/internal/ui/static"
	"github.com/raphi011/forgectl/internal/ui/styles"
)

// doctorCheck is one diagnostic line.
type doctorCheck struct {
	Name     string `json:"name"`
	OK       bool   `json:"ok"`
	Detail   string `json:"detail,omitempty"`
	Optional bool   `json:"optional"` // failure does not fail doctor
}

// doctorHosts lists the platform instances to check: the current project's
// host, the public instances and every configured host. Public instances
// are optional unless the project lives there.
func doctorHosts(ctx context.Context, a *app, cfg *config.Config) []doctorTarget {
	seen := map[string]bool{}
	var out []doctorTarget
	add := func(p forge.Platform, required bool) {
		if !seen[p.Host] {
			seen[p.Host] = true
			out = append(out, doctorTarget{platform: p, required: required})
		}
	}

	if p := a.detector().Detect(ctx, config.WorkDirFromContext(ctx), forge.DetectOptions{}); p != nil {
		add(*p, true)
	}
	add(forge.NewPlatform(forge.TypeGitHub, forge.GitHubHost, "", ""), false)
	add(forge.NewPlatform(forge.TypeGitLab, forge.GitLabHost, "", ""), false)

	hosts := make([]string, 0, len(cfg.Hosts))
	for h := range cfg.Hosts {
		hosts = append(hosts, h)
	}
	slices.Sort(hosts)
	for _, h := range hosts {
		if t, ok := forge.ParseType(cfg.Hosts[h]); ok {
			add(forge.NewPlatform(t, h, "", ""), true)
		}
	}
	return out
}

type doctorTarget struct {
	platform forge.Platform
	required bool
}

// runDoctor runs every check concurrently. Results keep a stable order:
// git first, then targets in the order given.
func runDoctor(ctx context.Context, a *app, targets []doctorTarget, onDone func(doctorCheck)) []doctorCheck {
	results := make([]doctorCheck, 1+len(targets))

	var mu sync.Mutex
	done := func(i int, c doctorCheck) {
		mu.Lock()
		defer mu.Unlock()
		results[i] = c
		if onDone != nil {
			onDone(c)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)

	g.Go(func() error {
		done(0, checkGit(gctx, a.runner))
		return nil
	})
	for i, t := range targets {
		g.Go(func() error {
			done(i+1, checkPlatform(gctx, a, t))
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func checkGit(ctx context.Context, runner runcmd.Runner) doctorCheck {
	c := doctorCheck{Name: "git"}
	if _, err := runner.LookPath("git"); err != nil {
		c.Detail = "not found in PATH"
		return c
	}
	out, err := runner.Output(ctx, runcmd.Command{Name: "git", Args: []string{"--version"}})
	if err != nil {
		c.Detail = err.Error()
		return c
	}
	c.OK = true
	c.Detail = strings.TrimPrefix(strings.TrimSpace(string(out)), "git version ")
	return c
}

func checkPlatform(ctx context.Context, a *app, t doctorTarget) doctorCheck {
	adapter, err := a.factory.CreateAdapter(t.platform)
	if err != nil {
		return doctorCheck{Name: t.platform.Host, Detail: err.Error(), Optional: !t.required}
	}

	st := checkAuthStatus(ctx, adapter)
	c := doctorCheck{Name: st.CLI + " @ " + st.Host, Optional: !t.required}
	switch {
	case !st.Installed:
		c.Detail = "not installed"
	case !st.Authenticated:
		c.Detail = st.Version + ", not logged in"
	default:
		c.OK = true
		c.Detail = st.Version + ", logged in"
		if st.Username != "" {
			c.Detail += " as " + st.Username
		}
	}
	return c
}

func newDoctorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "doctor",
		Short:   "Check git, gh and glab setup",
		GroupID: GroupConfig,
		Args:    cobra.NoArgs,
		Long: `Check that git is installed and that gh/glab are installed and logged in
for github.com, gitlab.com, every host in the [hosts] config section and
the current project's host.

github.com and gitlab.com are optional; a missing login there only fails
doctor for the current project's host or configured hosts.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a := appFromContext(ctx)
			cfg := config.FromContext(ctx)
			if cfg == nil {
				d := config.Default()
				cfg = &d
			}

			targets := doctorHosts(ctx, a, cfg)
			bar := progress.NewProgressBar(1+len(targets), "Running checks...")
			bar.Start()
			results := runDoctor(ctx, a, targets, func(c doctorCheck) { bar.Increment(c.Name) })
			bar.Stop()

			out := output.FromContext(ctx)
			if out.JSONMode() {
				if err := out.JSON(results); err != nil {
					return err
				}
			} else {
				rows := make([][]string, len(results))
				for i, c := range results {
					mark := styles.Check(c.OK)
					if !c.OK && c.Optional {
						mark = styles.WarningStyle.Render("!")
					}
					rows[i] = []string{mark, c.Name, c.Detail}
				}
				out.Styled(static.RenderTable([]string{"", "CHECK", "DETAIL"}, rows))
			}

			for _, c := range results {
				if !c.OK && !c.Optional {
					return &exitError{code: 1}
				}
			}
			return nil
		},
	}

	return cmd
}
