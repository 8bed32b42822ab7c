package main

import (
	"github.com/BurntSushi/toml"
	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/raphi011/forgectl/internal/config"
	"github.com/raphi011/forgectl/internal/log"
	"github.com/raphi011/forgectl/internal/output"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "config",
		Short:   "Manage configuration",
		Aliases: []string{"cfg"},
		GroupID: GroupConfig,
		Long: `Manage forgectl configuration.

Global config: $XDG_CONFIG_HOME/forgectl/config.toml
Local config:  .forgectl.toml (in the project directory; remote, hosts)`,
		Example: `  forgectl config init       # Create default global config
  forgectl config init -s    # Print the template
  forgectl config show       # Show effective config
  forgectl config path`,
	}

	cmd.AddCommand(newConfigInitCmd())
	cmd.AddCommand(newConfigShowCmd())
	cmd.AddCommand(newConfigPathCmd())

	return cmd
}

func newConfigInitCmd() *cobra.Command {
	var force, stdout bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create default config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := output.FromContext(ctx)

			if stdout {
				out.Print(config.DefaultConfig())
				return nil
			}

			path, err := config.Init(force)
			if err != nil {
				return err
			}
			log.FromContext(ctx).Printf("Created config file: %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite existing config")
	cmd.Flags().BoolVarP(&stdout, "stdout", "s", false, "Print config to stdout")

	return cmd
}

func newConfigShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the effective config for the project",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg := config.FromContext(ctx)
			if r := config.ResolverFromContext(ctx); r != nil {
				local, err := r.ConfigForProject(config.WorkDirFromContext(ctx))
				if err != nil {
					return err
				}
				cfg = local
			}
			if cfg == nil {
				d := config.Default()
				cfg = &d
			}

			out := output.FromContext(ctx)
			if out.JSONMode() {
				return out.JSON(cfg)
			}
			if err := toml.NewEncoder(out.Writer()).Encode(cfg); err != nil {
				return errors.Wrap(err, "encode config")
			}
			return nil
		},
	}

	return cmd
}

func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the config file location",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			output.FromContext(cmd.Context()).Println(config.Path())
			return nil
		},
	}
}
