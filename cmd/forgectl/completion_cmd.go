package main

import (
	"github.com/spf13/cobra"

	"github.com/raphi011/forgectl/internal/output"
)

func newCompletionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:       "completion <shell>",
		Short:     "Generate completion script",
		GroupID:   GroupConfig,
		ValidArgs: []string{"bash", "zsh", "fish", "powershell"},
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		Example: `  # Fish
  forgectl completion fish > ~/.config/fish/completions/forgectl.fish

  # Bash
  forgectl completion bash > ~/.local/share/bash-completion/completions/forgectl

  # Zsh
  forgectl completion zsh > ~/.zfunc/_forgectl`,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletionV2(w, true)
			case "zsh":
				return cmd.Root().GenZshCompletion(w)
			case "fish":
				return cmd.Root().GenFishCompletion(w, true)
			default:
				return cmd.Root().GenPowerShellCompletionWithDesc(w)
			}
		},
	}

	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "version",
		Short:   "Print version information",
		GroupID: GroupConfig,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := output.FromContext(cmd.Context())
			if out.JSONMode() {
				return out.JSON(map[string]string{
					"version": version,
					"commit":  commit,
					"date":    date,
				})
			}
			out.Println(versionString())
			return nil
		},
	}
}
