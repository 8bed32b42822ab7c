package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	runcmd "github.com/raphi011/forgectl/internal/cmd"
	"github.com/raphi011/forgectl/internal/config"
	"github.com/raphi011/forgectl/internal/log"
	"github.com/raphi011/forgectl/internal/output"
	"github.com/raphi011/forgectl/internal/ui/progress"
	"github.com/raphi011/forgectl/internal/ui/styles"
)

var (
	// Global flags
	verbose bool
	quiet   bool
	jsonOut bool
	workDir string
)

// Command group IDs for organizing help output
const (
	GroupCore     = "core"
	GroupPlatform = "platform"
	GroupWork     = "work"
	GroupConfig   = "config"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "forgectl",
	Short: "Detect a project's git platform and drive gh/glab",
	Long: `forgectl reads a project's git remote, works out whether it lives on
GitHub or GitLab (including self-hosted instances), and runs the matching
CLI (gh or glab) for authentication, repositories, releases, issues and
pull requests.`,
	SilenceUsage:               true,
	SilenceErrors:              true,
	SuggestionsMinimumDistance: 2,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		switch cmd.Name() {
		case "completion", "__complete", "help":
			return nil
		}
		return setup(cmd)
	},
}

// setup builds the command context from global flags and the config file.
func setup(cmd *cobra.Command) error {
	if verbose && quiet {
		return errors.New("--verbose and --quiet are mutually exclusive")
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	logger := log.New(os.Stderr, verbose, quiet)
	ctx = log.WithLogger(ctx, logger)
	ctx = output.WithPrinter(ctx, os.Stdout, jsonOut)
	progress.SetQuiet(quiet || jsonOut)

	cfg, err := config.Load()
	if err != nil {
		// config init must still work with a broken file
		if cmd.Parent() == nil || cmd.Parent().Name() != "config" {
			return err
		}
		logger.Warnf("%v", err)
	}
	styles.Init(cfg.Theme)

	dir, err := resolveWorkDir(workDir)
	if err != nil {
		return err
	}

	ctx = config.WithConfig(ctx, &cfg)
	ctx = config.WithResolver(ctx, config.NewResolver(&cfg))
	ctx = config.WithWorkDir(ctx, dir)
	ctx = withApp(ctx, newApp(&cfg, runcmd.Exec{}))

	cmd.SetContext(ctx)
	return nil
}

func resolveWorkDir(dir string) (string, error) {
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", errors.Wrap(err, "get working directory")
		}
		return wd, nil
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", errors.Wrapf(err, "resolve %s", dir)
	}
	if info, err := os.Stat(abs); err != nil || !info.IsDir() {
		return "", errors.Newf("--dir %s is not a directory", dir)
	}
	return abs, nil
}

// Execute adds all child commands to the root command and runs it.
func Execute() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	rootCmd.SetContext(ctx)

	err := rootCmd.Execute()
	cancel()
	if err != nil {
		printError(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Show external commands being executed")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress all log output")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "Print JSON instead of tables")
	rootCmd.PersistentFlags().StringVarP(&workDir, "dir", "C", "", "Run as if started in this project directory")
	rootCmd.MarkFlagsMutuallyExclusive("verbose", "quiet")
	_ = rootCmd.MarkPersistentFlagDirname("dir")

	rootCmd.Version = versionString()
	rootCmd.SetVersionTemplate("{{.Version}}\n")

	rootCmd.AddGroup(
		&cobra.Group{ID: GroupCore, Title: "Core Commands:"},
		&cobra.Group{ID: GroupPlatform, Title: "Platform Commands:"},
		&cobra.Group{ID: GroupWork, Title: "Issue & Pull Request Commands:"},
		&cobra.Group{ID: GroupConfig, Title: "Configuration Commands:"},
	)

	rootCmd.AddCommand(newDetectCmd())
	rootCmd.AddCommand(newAuthCmd())
	rootCmd.AddCommand(newUserCmd())

	rootCmd.AddCommand(newRepoCmd())
	rootCmd.AddCommand(newOrgCmd())
	rootCmd.AddCommand(newReleaseCmd())

	rootCmd.AddCommand(newIssueCmd())
	rootCmd.AddCommand(newPrCmd())

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newDoctorCmd())
	rootCmd.AddCommand(newCompletionCmd())
	rootCmd.AddCommand(newVersionCmd())
}
