package main

import (
	"io"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/raphi011/forgectl/internal/forge"
	"github.com/raphi011/forgectl/internal/output"
	"github.com/raphi011/forgectl/internal/ui/styles"
)

func newReleaseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "release",
		Short:   "Create and look up releases",
		GroupID: GroupPlatform,
		Example: `  forgectl release create v1.2.0 --notes-file CHANGELOG.md
  forgectl release url v1.2.0`,
	}

	cmd.AddCommand(newReleaseCreateCmd())
	cmd.AddCommand(newReleaseURLCmd())

	return cmd
}

func newReleaseCreateCmd() *cobra.Command {
	var (
		tf         targetFlags
		title      string
		notes      string
		notesFile  string
		gitTarget  string
		draft      bool
		prerelease bool
	)

	cmd := &cobra.Command{
		Use:   "create <tag>",
		Short: "Create a release for the project",
		Args:  cobra.ExactArgs(1),
		Long: `Create a release for the project's repository.

The tag is created from --target (default branch when empty) if it does
not exist yet. --draft and --prerelease only apply to GitHub.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			t, err := tf.resolve(ctx)
			if err != nil {
				return err
			}

			if notesFile != "" {
				if notes, err = readNotes(notesFile); err != nil {
					return err
				}
			}

			res := t.adapter.CreateRelease(ctx, forge.ReleaseOptions{
				ProjectPath: t.projectPath,
				TagName:     args[0],
				Title:       title,
				Notes:       notes,
				Target:      gitTarget,
				Draft:       draft,
				Prerelease:  prerelease,
			})

			out := output.FromContext(ctx)
			if out.JSONMode() {
				if err := out.JSON(res); err != nil {
					return err
				}
			}
			if !res.Success {
				return errors.Newf("create release %s: %s", args[0], res.Error)
			}
			if !out.JSONMode() {
				out.Styled(styles.Check(true) + " Released " + styles.Bold.Render(res.TagName) + "\n")
				if res.ReleaseURL != "" {
					out.Println(res.ReleaseURL)
				}
			}
			return nil
		},
	}

	tf.register(cmd, false)
	cmd.Flags().StringVarP(&title, "title", "t", "", "Release title (default: the tag)")
	cmd.Flags().StringVarP(&notes, "notes", "n", "", "Release notes")
	cmd.Flags().StringVarP(&notesFile, "notes-file", "F", "", "Read release notes from file (- for stdin)")
	cmd.Flags().StringVar(&gitTarget, "target", "", "Branch or commit to tag")
	cmd.Flags().BoolVar(&draft, "draft", false, "Save as draft (GitHub)")
	cmd.Flags().BoolVar(&prerelease, "prerelease", false, "Mark as prerelease (GitHub)")
	cmd.MarkFlagsMutuallyExclusive("notes", "notes-file")

	return cmd
}

// readNotes reads release notes from path, or stdin for "-".
func readNotes(path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", errors.Wrap(err, "read notes from stdin")
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", errors.Wrap(err, "read notes file")
	}
	return string(data), nil
}

func newReleaseURLCmd() *cobra.Command {
	var tf targetFlags

	cmd := &cobra.Command{
		Use:   "url <tag>",
		Short: "Print the web URL of a release",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			t, err := tf.resolve(ctx)
			if err != nil {
				return err
			}

			url := t.adapter.GetReleaseURL(ctx, t.projectPath, args[0])
			if url == "" {
				return errors.Newf("no release found for tag %s", args[0])
			}

			out := output.FromContext(ctx)
			if out.JSONMode() {
				return out.JSON(map[string]string{"tag": args[0], "url": url})
			}
			out.Println(url)
			return nil
		},
	}

	tf.register(cmd, false)
	return cmd
}
