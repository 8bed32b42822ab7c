package main

import (
	"context"
	"path/filepath"
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/raphi011/forgectl/internal/config"
	"github.com/raphi011/forgectl/internal/forge"
	"github.com/raphi011/forgectl/internal/log"
	"github.com/raphi011/forgectl/internal/output"
	"github.com/raphi011/forgectl/internal/remotewatch"
	"github.com/raphi011/forgectl/internal/ui/static"
	"github.com/raphi011/forgectl/internal/ui/styles"
)

// detectResult is the JSON shape of "detect".
type detectResult struct {
	Detected   bool   `json:"detected"`
	Path       string `json:"path"`
	Type       string `json:"type,omitempty"`
	Host       string `json:"host,omitempty"`
	Owner      string `json:"owner,omitempty"`
	Repo       string `json:"repo,omitempty"`
	FullName   string `json:"fullName,omitempty"`
	SelfHosted bool   `json:"selfHosted"`
	URL        string `json:"url,omitempty"`
	CLI        string `json:"cli,omitempty"`
}

func newDetectResult(path string, p *forge.Platform) detectResult {
	if p == nil {
		return detectResult{Path: path}
	}
	cli := "glab"
	if p.IsGitHub {
		cli = "gh"
	}
	return detectResult{
		Detected:   true,
		Path:       path,
		Type:       string(p.Type),
		Host:       p.Host,
		Owner:      p.Owner,
		Repo:       p.Repo,
		FullName:   p.FullName,
		SelfHosted: p.IsSelfHosted,
		URL:        p.WebURL(),
		CLI:        cli,
	}
}

func newDetectCmd() *cobra.Command {
	var (
		remote  string
		refresh bool
		watch   bool
	)

	cmd := &cobra.Command{
		Use:     "detect [path]",
		Short:   "Show which platform a project lives on",
		GroupID: GroupCore,
		Args:    cobra.MaximumNArgs(1),
		Long: `Show which platform a project lives on.

The platform is derived from the URL of a git remote (origin by default).
Hosts containing "github" are GitHub; every other host is GitLab unless
mapped in the [hosts] config section. Results are cached per project
path for the lifetime of the process.`,
		Example: `  forgectl detect                   # Current directory
  forgectl detect ~/src/app --json  # Machine-readable output
  forgectl detect --remote upstream # Read another remote
  forgectl detect --watch           # Re-detect when the remote changes`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			path := config.WorkDirFromContext(ctx)
			if len(args) == 1 {
				abs, err := filepath.Abs(args[0])
				if err != nil {
					return errors.Wrapf(err, "resolve %s", args[0])
				}
				path = abs
			}
			opts := forge.DetectOptions{RemoteName: remote, ForceRefresh: refresh}

			if watch {
				return watchDetect(ctx, path, opts)
			}

			res := newDetectResult(path, appFromContext(ctx).detector().Detect(ctx, path, opts))
			if err := printDetect(ctx, res); err != nil {
				return err
			}
			if !res.Detected {
				return &exitError{code: 1}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&remote, "remote", "", "Git remote to read (default from config, then origin)")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "Ignore the cached result")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Keep running and re-detect when the git config changes")

	return cmd
}

func printDetect(ctx context.Context, res detectResult) error {
	out := output.FromContext(ctx)
	if out.JSONMode() {
		return out.JSON(res)
	}

	if !res.Detected {
		out.Styled(styles.WarningStyle.Render("No GitHub or GitLab remote found") + " in " + res.Path + "\n")
		return nil
	}

	out.Styled(static.KeyValue([][2]string{
		{"Platform", styles.PrimaryStyle.Render(res.Type)},
		{"Host", res.Host},
		{"Repository", res.FullName},
		{"Self-hosted", strconv.FormatBool(res.SelfHosted)},
		{"URL", res.URL},
		{"CLI", res.CLI},
	}))
	return nil
}

// watchDetect prints the detection result, then again every time the
// project's git config changes, until ctx is cancelled.
func watchDetect(ctx context.Context, path string, opts forge.DetectOptions) error {
	a := appFromContext(ctx)
	l := log.FromContext(ctx)
	detector := a.detector()

	w, err := remotewatch.New(detector, a.runner)
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(ctx, path); err != nil {
		return err
	}

	last := newDetectResult(path, detector.Detect(ctx, path, opts))
	if err := printDetect(ctx, last); err != nil {
		return err
	}
	l.Println("Watching for remote changes (Ctrl+C to stop)...")

	// The watcher already cleared the cache entry.
	opts.ForceRefresh = false
	return w.Run(ctx, func(p string) {
		res := newDetectResult(p, detector.Detect(ctx, p, opts))
		if res == last {
			return
		}
		last = res
		if err := printDetect(ctx, res); err != nil {
			l.Warnf("%v", err)
		}
	})
}
