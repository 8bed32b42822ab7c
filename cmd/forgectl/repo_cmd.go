package main

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/sahilm/fuzzy"
	"github.com/spf13/cobra"

	runcmd "github.com/raphi011/forgectl/internal/cmd"
	"github.com/raphi011/forgectl/internal/forge"
	"github.com/raphi011/forgectl/internal/log"
	"github.com/raphi011/forgectl/internal/output"
	"github.com/raphi011/forgectl/internal/ui/progress"
	"github.com/raphi011/forgectl/internal/ui/prompt"
	"github.com/raphi011/forgectl/internal/ui/static"
	"github.com/raphi011/forgectl/internal/ui/styles"
)

func newRepoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "repo",
		Short:   "Work with repositories",
		GroupID: GroupPlatform,
		Example: `  forgectl repo list --filter widg
  forgectl repo branches -R acme/widgets
  forgectl repo create widgets --owner acme --private --set-remote
  forgectl repo remote acme/widgets`,
	}

	cmd.AddCommand(newRepoListCmd())
	cmd.AddCommand(newRepoBranchesCmd())
	cmd.AddCommand(newRepoCreateCmd())
	cmd.AddCommand(newRepoRemoteCmd())

	return cmd
}

// repoSource adapts repositories for fuzzy matching.
type repoSource []forge.Repository

func (s repoSource) String(i int) string { return s[i].FullName }
func (s repoSource) Len() int            { return len(s) }

// filterRepos keeps repositories whose full name fuzzy-matches pattern,
// best match first. An empty pattern keeps everything.
func filterRepos(repos []forge.Repository, pattern string) []forge.Repository {
	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		return repos
	}
	matches := fuzzy.FindFrom(pattern, repoSource(repos))
	out := make([]forge.Repository, len(matches))
	for i, m := range matches {
		out[i] = repos[m.Index]
	}
	return out
}

func newRepoListCmd() *cobra.Command {
	var (
		tf     targetFlags
		limit  int
		filter string
	)

	cmd := &cobra.Command{
		Use:     "list",
		Short:   "List repositories you can access",
		Aliases: []string{"ls"},
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			t, err := tf.resolve(ctx)
			if err != nil {
				return err
			}

			type listed struct {
				repos []forge.Repository
				err   error
			}
			res := progress.Spin(ctx, "Loading repositories...", func(ctx context.Context) listed {
				repos, err := t.adapter.ListRepos(ctx, limit)
				return listed{repos, err}
			})
			if res.err != nil {
				return res.err
			}
			repos := filterRepos(res.repos, filter)

			out := output.FromContext(ctx)
			if out.JSONMode() {
				return out.JSON(repos)
			}
			if len(repos) == 0 {
				log.FromContext(ctx).Println("No repositories found")
				return nil
			}
			rows := make([][]string, len(repos))
			for i, r := range repos {
				rows[i] = static.RepoRow(r)
			}
			out.Styled(static.RenderTable(static.RepoHeaders, rows))
			return nil
		},
	}

	tf.register(cmd, false)
	cmd.Flags().IntVarP(&limit, "limit", "L", forge.DefaultListLimit, "Maximum number of repositories to fetch")
	cmd.Flags().StringVarP(&filter, "filter", "f", "", "Fuzzy filter on owner/name")

	return cmd
}

func newRepoBranchesCmd() *cobra.Command {
	var tf targetFlags

	cmd := &cobra.Command{
		Use:   "branches",
		Short: "List branches of a repository",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			t, err := tf.resolve(ctx)
			if err != nil {
				return err
			}
			fullName, err := t.requireRepo()
			if err != nil {
				return err
			}

			branches, err := t.adapter.GetBranches(ctx, fullName)
			if err != nil {
				return err
			}

			out := output.FromContext(ctx)
			if out.JSONMode() {
				return out.JSON(branches)
			}
			for _, b := range branches {
				out.Println(b)
			}
			return nil
		},
	}

	tf.register(cmd, true)
	return cmd
}

func newRepoCreateCmd() *cobra.Command {
	var (
		tf          targetFlags
		owner       string
		description string
		private     bool
		chooseOwner bool
		setRemote   bool
	)

	cmd := &cobra.Command{
		Use:   "create [name]",
		Short: "Create a repository",
		Args:  cobra.MaximumNArgs(1),
		Long: `Create a repository on the platform.

Without a name, and on a terminal, forgectl asks for one. --choose-owner
lists your organizations (GitHub) or groups (GitLab) to create it under.
--set-remote points the project's git remote (origin unless configured
or passed with --remote) at the new repository.`,
		Example: `  forgectl repo create widgets --private
  forgectl repo create widgets --owner acme/platform -p gitlab
  forgectl repo create --choose-owner --set-remote`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			t, err := tf.resolve(ctx)
			if err != nil {
				return err
			}

			var name string
			if len(args) == 1 {
				name = args[0]
			} else {
				if !prompt.Interactive() {
					return errors.New("repository name required")
				}
				if name, err = prompt.TextInput(ctx, "Repository name", "my-project", validateRepoName); err != nil {
					return err
				}
			}
			if err := validateRepoName(name); err != nil {
				return err
			}

			if chooseOwner {
				if owner, err = pickOwner(ctx, t.adapter); err != nil {
					return err
				}
			}

			created, err := t.adapter.CreateRepo(ctx, forge.CreateRepoOptions{
				Name:        name,
				Owner:       owner,
				Description: description,
				Private:     private,
			})
			if err != nil {
				return err
			}

			var remoteURL string
			if setRemote {
				if remoteURL, err = t.adapter.AddGitRemote(ctx, t.projectPath, created.FullName); err != nil {
					return err
				}
			}

			out := output.FromContext(ctx)
			if out.JSONMode() {
				return out.JSON(struct {
					*forge.CreatedRepo
					Remote string `json:"remote,omitempty"`
				}{created, remoteURL})
			}
			out.Styled(styles.Check(true) + " Created " + styles.Bold.Render(created.FullName) + "\n")
			out.Println(created.URL)
			if remoteURL != "" {
				out.Styled(styles.Check(true) + " " + t.remote + " → " + remoteURL + "\n")
			}
			return nil
		},
	}

	tf.register(cmd, false)
	cmd.Flags().StringVarP(&owner, "owner", "o", "", "Organization or group path (default: your account)")
	cmd.Flags().StringVarP(&description, "description", "d", "", "Repository description")
	cmd.Flags().BoolVar(&private, "private", false, "Create a private repository")
	cmd.Flags().BoolVar(&chooseOwner, "choose-owner", false, "Pick the owner from your organizations")
	cmd.Flags().BoolVar(&setRemote, "set-remote", false, "Point the project's git remote at the new repository")
	cmd.MarkFlagsMutuallyExclusive("owner", "choose-owner")

	return cmd
}

func validateRepoName(name string) error {
	switch {
	case name == "":
		return errors.New("repository name required")
	case strings.ContainsAny(name, "/ \t"):
		return errors.Newf("invalid repository name %q: no slashes or spaces", name)
	}
	return nil
}

// pickOwner lets the user choose between their account and organizations.
func pickOwner(ctx context.Context, a forge.Adapter) (string, error) {
	if !prompt.Interactive() {
		return "", errors.New("--choose-owner needs a terminal; pass --owner instead")
	}

	orgs := progress.Spin(ctx, "Loading organizations...", a.ListOrganizations)
	options := []prompt.Option{{Label: "Personal account", Value: ""}}
	for _, o := range orgs {
		options = append(options, prompt.Option{Label: o.Name, Detail: o.FullPath, Value: o.FullPath})
	}

	choice, err := prompt.Select(ctx, "Create repository under", options)
	if err != nil {
		return "", err
	}
	return choice.Value, nil
}

func newRepoRemoteCmd() *cobra.Command {
	var (
		tf  targetFlags
		yes bool
	)

	cmd := &cobra.Command{
		Use:   "remote <owner/repo>",
		Short: "Point the project's git remote at a repository",
		Args:  cobra.ExactArgs(1),
		Long: `Point the project's git remote (origin unless configured or passed with
--remote) at a repository on the platform.

An existing remote with a different URL is replaced after confirmation.`,
		Example: `  forgectl repo remote acme/widgets
  forgectl repo remote team/sub/app -p gitlab --hostname git.example.com --yes`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			fullName := args[0]
			if !strings.Contains(fullName, "/") {
				return errors.Newf("expected owner/repo, got %q", fullName)
			}

			t, err := tf.resolve(ctx)
			if err != nil {
				return err
			}

			current := remoteURLOf(ctx, appFromContext(ctx).runner, t.projectPath, t.remote)
			if current != "" && !yes {
				if !prompt.Interactive() {
					return errors.WithHint(
						errors.Newf("%s already points at %s", t.remote, current),
						"pass --yes to replace it")
				}
				ok, err := prompt.Confirm(ctx, "Replace "+t.remote+" ("+current+")?", false)
				if err != nil {
					return err
				}
				if !ok {
					return nil
				}
			}

			remoteURL, err := t.adapter.AddGitRemote(ctx, t.projectPath, fullName)
			if err != nil {
				return err
			}

			out := output.FromContext(ctx)
			if out.JSONMode() {
				return out.JSON(map[string]string{"remote": t.remote, "url": remoteURL})
			}
			out.Styled(styles.Check(true) + " " + t.remote + " → " + remoteURL + "\n")
			return nil
		},
	}

	tf.register(cmd, false)
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Replace an existing remote without asking")

	return cmd
}

// remoteURLOf returns the URL of remote in dir, or "" if there is none.
func remoteURLOf(ctx context.Context, runner runcmd.Runner, dir, remote string) string {
	out, err := runner.Output(ctx, runcmd.Command{Dir: dir, Name: "git", Args: []string{"remote", "get-url", remote}})
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}
