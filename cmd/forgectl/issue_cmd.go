package main

import (
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/raphi011/forgectl/internal/forge"
	"github.com/raphi011/forgectl/internal/log"
	"github.com/raphi011/forgectl/internal/output"
	"github.com/raphi011/forgectl/internal/ui/prompt"
	"github.com/raphi011/forgectl/internal/ui/static"
	"github.com/raphi011/forgectl/internal/ui/styles"
)

func newIssueCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "issue",
		Short:   "Work with issues",
		GroupID: GroupWork,
		Long: `Work with issues.

Numbers are the per-project numbers shown in the web UI (GitLab's iid).`,
		Example: `  forgectl issue list --state all
  forgectl issue view 42
  forgectl issue comment 42 -b "Fixed in v1.2.0"`,
	}

	cmd.AddCommand(newIssueListCmd())
	cmd.AddCommand(newIssueViewCmd())
	cmd.AddCommand(newIssueCommentCmd())

	return cmd
}

func parseNumber(arg string) (int, error) {
	n, err := strconv.Atoi(strings.TrimPrefix(arg, "#"))
	if err != nil || n <= 0 {
		return 0, errors.Newf("invalid number: %s", arg)
	}
	return n, nil
}

var stateCompletions = cobra.FixedCompletions(
	[]string{forge.StateOpen, forge.StateClosed, forge.StateMerged, forge.StateAll},
	cobra.ShellCompDirectiveNoFileComp)

func newIssueListCmd() *cobra.Command {
	var (
		tf    targetFlags
		state string
		limit int
	)

	cmd := &cobra.Command{
		Use:     "list",
		Short:   "List issues",
		Aliases: []string{"ls"},
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := validateState(state, false); err != nil {
				return err
			}
			t, err := tf.resolve(ctx)
			if err != nil {
				return err
			}
			fullName, err := t.requireRepo()
			if err != nil {
				return err
			}

			issues, err := t.adapter.ListIssues(ctx, fullName, forge.IssueListOptions{State: state, Limit: limit})
			if err != nil {
				return err
			}

			out := output.FromContext(ctx)
			if out.JSONMode() {
				return out.JSON(issues)
			}
			if len(issues) == 0 {
				log.FromContext(ctx).Printf("No %s issues in %s\n", state, fullName)
				return nil
			}
			rows := make([][]string, len(issues))
			for i, is := range issues {
				rows[i] = static.IssueRow(is)
			}
			out.Styled(static.RenderTable(static.IssueHeaders, rows))
			out.Styled(static.Count(len(issues), "issue") + "\n")
			return nil
		},
	}

	tf.register(cmd, true)
	cmd.Flags().StringVarP(&state, "state", "s", forge.StateOpen, "open, closed or all")
	cmd.Flags().IntVarP(&limit, "limit", "L", forge.DefaultListLimit, "Maximum number of issues")
	_ = cmd.RegisterFlagCompletionFunc("state", stateCompletions)

	return cmd
}

// validateState checks a --state value. merged only applies to pull requests.
func validateState(state string, allowMerged bool) error {
	switch state {
	case forge.StateOpen, forge.StateClosed, forge.StateAll:
		return nil
	case forge.StateMerged:
		if allowMerged {
			return nil
		}
	}
	return errors.Newf("invalid state %q", state)
}

func newIssueViewCmd() *cobra.Command {
	var tf targetFlags

	cmd := &cobra.Command{
		Use:   "view <number>",
		Short: "Show an issue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			n, err := parseNumber(args[0])
			if err != nil {
				return err
			}
			t, err := tf.resolve(ctx)
			if err != nil {
				return err
			}
			fullName, err := t.requireRepo()
			if err != nil {
				return err
			}

			issue, err := t.adapter.GetIssue(ctx, fullName, n)
			if err != nil {
				return err
			}

			out := output.FromContext(ctx)
			if out.JSONMode() {
				return out.JSON(issue)
			}
			out.Styled(styles.Bold.Render(issue.Title) + " " + styles.FormatRef(issue.Number, issue.State, false, issue.URL) + "\n")
			created := ""
			if !issue.CreatedAt.IsZero() {
				created = issue.CreatedAt.Local().Format("2006-01-02 15:04")
			}
			out.Styled(static.KeyValue([][2]string{
				{"State", styles.StateStyle(issue.State, false).Render(styles.FormatState(issue.State, false))},
				{"Author", issue.Author},
				{"Labels", strings.Join(issue.Labels, ", ")},
				{"Created", created},
				{"URL", issue.URL},
			}))
			if body := strings.TrimSpace(issue.Body); body != "" {
				out.Println()
				out.Println(body)
			}
			return nil
		},
	}

	tf.register(cmd, true)
	return cmd
}

func newIssueCommentCmd() *cobra.Command {
	var (
		tf       targetFlags
		body     string
		bodyFile string
	)

	cmd := &cobra.Command{
		Use:   "comment <number>",
		Short: "Comment on an issue",
		Args:  cobra.ExactArgs(1),
		Long: `Add a comment (GitLab: note) to an issue.

Without --body or --body-file, and on a terminal, forgectl asks for it.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			n, err := parseNumber(args[0])
			if err != nil {
				return err
			}

			switch {
			case bodyFile == "-":
				data, err := io.ReadAll(os.Stdin)
				if err != nil {
					return errors.Wrap(err, "read comment from stdin")
				}
				body = string(data)
			case bodyFile != "":
				data, err := os.ReadFile(bodyFile)
				if err != nil {
					return errors.Wrap(err, "read comment file")
				}
				body = string(data)
			case body == "" && prompt.Interactive():
				body, err = prompt.TextInput(ctx, "Comment", "", func(s string) error {
					if s == "" {
						return errors.New("comment is empty")
					}
					return nil
				})
				if err != nil {
					return err
				}
			}
			if strings.TrimSpace(body) == "" {
				return errors.New("comment body required (--body or --body-file)")
			}

			t, err := tf.resolve(ctx)
			if err != nil {
				return err
			}
			fullName, err := t.requireRepo()
			if err != nil {
				return err
			}

			if err := t.adapter.CommentOnIssue(ctx, fullName, n, body); err != nil {
				return err
			}

			out := output.FromContext(ctx)
			if out.JSONMode() {
				return out.JSON(map[string]any{"repository": fullName, "number": n, "commented": true})
			}
			out.Styled(styles.Check(true) + " Commented on " + fullName + "#" + strconv.Itoa(n) + "\n")
			return nil
		},
	}

	tf.register(cmd, true)
	cmd.Flags().StringVarP(&body, "body", "b", "", "Comment text")
	cmd.Flags().StringVarP(&bodyFile, "body-file", "F", "", "Read comment from file (- for stdin)")
	cmd.MarkFlagsMutuallyExclusive("body", "body-file")

	return cmd
}
