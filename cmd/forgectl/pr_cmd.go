package main

import (
	"github.com/spf13/cobra"

	"github.com/raphi011/forgectl/internal/forge"
	"github.com/raphi011/forgectl/internal/log"
	"github.com/raphi011/forgectl/internal/output"
	"github.com/raphi011/forgectl/internal/ui/static"
)

func newPrCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "pr",
		Short:   "Work with pull requests (GitLab: merge requests)",
		Aliases: []string{"mr"},
		GroupID: GroupWork,
	}

	cmd.AddCommand(newPrListCmd())

	return cmd
}

func newPrListCmd() *cobra.Command {
	var (
		tf    targetFlags
		state string
		limit int
	)

	cmd := &cobra.Command{
		Use:     "list",
		Short:   "List pull requests",
		Aliases: []string{"ls"},
		Args:    cobra.NoArgs,
		Example: `  forgectl pr list
  forgectl pr list --state merged -L 10
  forgectl mr list -R group/sub/app`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := validateState(state, true); err != nil {
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

			prs, err := t.adapter.ListPullRequests(ctx, fullName, state, limit)
			if err != nil {
				return err
			}

			out := output.FromContext(ctx)
			if out.JSONMode() {
				return out.JSON(prs)
			}
			if len(prs) == 0 {
				log.FromContext(ctx).Printf("No %s pull requests in %s\n", state, fullName)
				return nil
			}
			rows := make([][]string, len(prs))
			for i, pr := range prs {
				rows[i] = static.PRRow(pr)
			}
			out.Styled(static.RenderTable(static.PRHeaders, rows))
			out.Styled(static.Count(len(prs), "pull request") + "\n")
			return nil
		},
	}

	tf.register(cmd, true)
	cmd.Flags().StringVarP(&state, "state", "s", forge.StateOpen, "open, closed, merged or all")
	cmd.Flags().IntVarP(&limit, "limit", "L", forge.DefaultListLimit, "Maximum number of pull requests")
	_ = cmd.RegisterFlagCompletionFunc("state", stateCompletions)

	return cmd
}
