package main

import (
	"context"
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/raphi011/forgectl/internal/browser"
	"github.com/raphi011/forgectl/internal/forge"
	"github.com/raphi011/forgectl/internal/log"
	"github.com/raphi011/forgectl/internal/output"
	"github.com/raphi011/forgectl/internal/ui/progress"
	"github.com/raphi011/forgectl/internal/ui/static"
	"github.com/raphi011/forgectl/internal/ui/styles"
)

func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "auth",
		Short:   "Authenticate gh or glab with the project's platform",
		GroupID: GroupPlatform,
		Long: `Authenticate the platform CLI.

forgectl never stores credentials itself: gh and glab keep their own
sessions, forgectl only starts their login flows and reads their state.`,
		Example: `  forgectl auth status
  forgectl auth login
  forgectl auth login -p gitlab --hostname git.example.com
  forgectl auth token`,
	}

	cmd.AddCommand(newAuthStatusCmd())
	cmd.AddCommand(newAuthLoginCmd())
	cmd.AddCommand(newAuthTokenCmd())

	return cmd
}

// authStatus is the JSON shape of "auth status".
type authStatus struct {
	Platform      string `json:"platform"`
	Host          string `json:"host"`
	CLI           string `json:"cli"`
	Installed     bool   `json:"installed"`
	Version       string `json:"version,omitempty"`
	Authenticated bool   `json:"authenticated"`
	Username      string `json:"username,omitempty"`
}

func checkAuthStatus(ctx context.Context, a forge.Adapter) authStatus {
	p := a.Platform()
	st := authStatus{Platform: string(p.Type), Host: p.Host, CLI: a.CLIName()}

	cli := a.CheckCLIInstalled(ctx)
	st.Installed, st.Version = cli.Installed, cli.Version
	if !cli.Installed {
		return st
	}

	auth := a.CheckAuthentication(ctx)
	st.Authenticated, st.Username = auth.Authenticated, auth.Username
	return st
}

func newAuthStatusCmd() *cobra.Command {
	var tf targetFlags

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show whether the CLI is installed and logged in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			t, err := tf.resolve(ctx)
			if err != nil {
				return err
			}

			st := progress.Spin(ctx, "Checking "+t.adapter.CLIName()+"...", func(ctx context.Context) authStatus {
				return checkAuthStatus(ctx, t.adapter)
			})

			out := output.FromContext(ctx)
			if out.JSONMode() {
				if err := out.JSON(st); err != nil {
					return err
				}
			} else {
				user := st.Username
				if st.Authenticated && user == "" {
					user = "(unknown)"
				}
				out.Styled(static.KeyValue([][2]string{
					{"Platform", styles.PrimaryStyle.Render(st.Platform) + " (" + st.Host + ")"},
					{"CLI", styles.Check(st.Installed) + " " + st.CLI + " " + st.Version},
					{"Logged in", styles.Check(st.Authenticated) + " " + user},
				}))
			}

			switch {
			case !st.Installed:
				return errors.WithHint(
					errors.Newf("%s is not installed", st.CLI),
					installHint(st.CLI))
			case !st.Authenticated:
				return errors.WithHint(
					errors.Wrapf(forge.ErrNotAuthenticated, "%s on %s", st.CLI, st.Host),
					"run 'forgectl auth login'")
			}
			return nil
		},
	}

	tf.register(cmd, false)
	return cmd
}

func installHint(cli string) string {
	if cli == "gh" {
		return "install the GitHub CLI: https://cli.github.com"
	}
	return "install the GitLab CLI: https://gitlab.com/gitlab-org/cli"
}

func newAuthLoginCmd() *cobra.Command {
	var tf targetFlags

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Run the CLI's browser login flow",
		Args:  cobra.NoArgs,
		Long: `Run "gh auth login --web" or "glab auth login --web" for the platform host.

The authorization page is opened in the browser as soon as the CLI prints
it. GitHub's one-time device code is shown and copied to the clipboard.
When no browser can be opened, the URL is printed instead.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			l := log.FromContext(ctx)
			a := appFromContext(ctx)

			t, err := tf.resolve(ctx)
			if err != nil {
				return err
			}
			cli := t.adapter.CLIName()

			if st := t.adapter.CheckCLIInstalled(ctx); !st.Installed {
				return errors.WithHint(errors.Newf("%s is not installed", cli), installHint(cli))
			}

			sp := progress.NewSpinner(fmt.Sprintf("Waiting for %s auth login...", cli))
			a.setLoginPrompt(func(r forge.AuthResult) {
				msg := loginPromptMessage(r)
				if progress.Enabled() {
					sp.UpdateMessage(msg + " (waiting for " + cli + ")")
				} else {
					l.Println(msg)
				}
				if clip := clipboardText(r); clip != "" {
					if err := browser.CopyToClipboard(clip); err != nil {
						l.Debug("clipboard unavailable", "err", err)
					}
				}
			})
			defer a.setLoginPrompt(nil)

			sp.Start()
			res := t.adapter.StartAuth(ctx)
			sp.Stop()

			out := output.FromContext(ctx)
			if out.JSONMode() {
				if err := out.JSON(res); err != nil {
					return err
				}
			}
			if !res.Success {
				err := errors.New(res.Message)
				if res.FallbackURL != "" {
					err = errors.WithHintf(err, "finish in the browser: %s", res.FallbackURL)
				}
				return err
			}
			if !out.JSONMode() {
				out.Styled(styles.Check(true) + " " + res.Message + "\n")
			}
			return nil
		},
	}

	tf.register(cmd, false)
	return cmd
}

// loginPromptMessage tells the user what to do with the login prompt.
func loginPromptMessage(r forge.AuthResult) string {
	var msg string
	if r.DeviceCode != "" {
		msg = "Enter code " + styles.AccentStyle.Render(r.DeviceCode) + " "
	}
	if r.BrowserOpened {
		return msg + "in the browser window that just opened"
	}
	return msg + "at " + r.FallbackURL
}

// clipboardText picks what is worth copying: the device code, else the URL
// the browser could not open.
func clipboardText(r forge.AuthResult) string {
	if r.DeviceCode != "" {
		return r.DeviceCode
	}
	if !r.BrowserOpened {
		return r.FallbackURL
	}
	return ""
}

func newAuthTokenCmd() *cobra.Command {
	var tf targetFlags

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Print the CLI's stored token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			t, err := tf.resolve(ctx)
			if err != nil {
				return err
			}

			token, err := t.adapter.GetToken(ctx)
			if err != nil {
				return err
			}

			out := output.FromContext(ctx)
			if out.JSONMode() {
				return out.JSON(map[string]string{"host": t.adapter.Platform().Host, "token": token})
			}
			out.Println(token)
			return nil
		},
	}

	tf.register(cmd, false)
	return cmd
}

func newUserCmd() *cobra.Command {
	var tf targetFlags

	cmd := &cobra.Command{
		Use:     "user",
		Short:   "Show the authenticated account",
		GroupID: GroupPlatform,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			t, err := tf.resolve(ctx)
			if err != nil {
				return err
			}

			u, err := t.adapter.GetUser(ctx)
			if err != nil {
				return err
			}

			out := output.FromContext(ctx)
			if out.JSONMode() {
				return out.JSON(u)
			}
			out.Styled(static.KeyValue([][2]string{
				{"Username", styles.Bold.Render(u.Username)},
				{"Name", u.Name},
				{"Host", t.adapter.Platform().Host},
				{"Avatar", u.AvatarURL},
			}))
			return nil
		},
	}

	tf.register(cmd, false)
	return cmd
}
