package main

import (
	"github.com/spf13/cobra"

	"github.com/raphi011/forgectl/internal/log"
	"github.com/raphi011/forgectl/internal/output"
	"github.com/raphi011/forgectl/internal/ui/progress"
	"github.com/raphi011/forgectl/internal/ui/static"
)

func newOrgCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "org",
		Short:   "Work with organizations (GitHub) and groups (GitLab)",
		GroupID: GroupPlatform,
	}

	cmd.AddCommand(newOrgListCmd())

	return cmd
}

func newOrgListCmd() *cobra.Command {
	var tf targetFlags

	cmd := &cobra.Command{
		Use:     "list",
		Short:   "List organizations or groups you belong to",
		Aliases: []string{"ls"},
		Args:    cobra.NoArgs,
		Long: `List organizations (GitHub) or groups (GitLab) you belong to.

Lookup failures are not errors: the list is simply empty.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			t, err := tf.resolve(ctx)
			if err != nil {
				return err
			}

			orgs := progress.Spin(ctx, "Loading organizations...", t.adapter.ListOrganizations)

			out := output.FromContext(ctx)
			if out.JSONMode() {
				return out.JSON(orgs)
			}
			if len(orgs) == 0 {
				log.FromContext(ctx).Println("No organizations found")
				return nil
			}
			rows := make([][]string, len(orgs))
			for i, o := range orgs {
				rows[i] = static.OrgRow(o)
			}
			out.Styled(static.RenderTable(static.OrgHeaders, rows))
			return nil
		},
	}

	tf.register(cmd, false)
	return cmd
}
