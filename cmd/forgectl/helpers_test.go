package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/spf13/cobra"

	runcmd "github.com/raphi011/forgectl/internal/cmd"
	"github.com/raphi011/forgectl/internal/config"
	"github.com/raphi011/forgectl/internal/log"
	"github.com/raphi011/forgectl/internal/output"
	"github.com/raphi011/forgectl/internal/ui/progress"
)

// fakeRunner answers commands from a table keyed by "name args...".
// The first key that is a prefix of the command line wins.
type fakeRunner struct {
	mu      sync.Mutex
	calls   []string
	answers map[string]string
	fail    map[string]bool
	missing map[string]bool
}

var _ runcmd.Runner = (*fakeRunner)(nil)

func newFakeRunner(answers map[string]string) *fakeRunner {
	return &fakeRunner{answers: answers, fail: map[string]bool{}, missing: map[string]bool{}}
}

func (f *fakeRunner) LookPath(name string) (string, error) {
	if f.missing[name] {
		return "", exec.ErrNotFound
	}
	return "/usr/bin/" + name, nil
}

func (f *fakeRunner) Output(_ context.Context, c runcmd.Command) ([]byte, error) {
	line := strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))

	f.mu.Lock()
	f.calls = append(f.calls, line)
	f.mu.Unlock()

	for key := range f.fail {
		if strings.HasPrefix(line, key) {
			return nil, &runcmd.ExitError{Name: c.Name, Code: 1, Stderr: "failed"}
		}
	}
	for key, out := range f.answers {
		if strings.HasPrefix(line, key) {
			return []byte(out), nil
		}
	}
	return nil, errors.New("unexpected command: " + line)
}

func (f *fakeRunner) Stream(_ context.Context, c runcmd.Command, _ func([]byte)) error {
	return errors.New("unexpected stream: " + c.Name)
}

// ran reports whether a recorded command line contains sub.
func (f *fakeRunner) ran(sub string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.calls {
		if strings.Contains(c, sub) {
			return true
		}
	}
	return false
}

// withRemote answers "git remote get-url" for dir with url.
func withRemote(f *fakeRunner, dir, url string) {
	f.answers["git -C "+dir+" remote get-url"] = url + "\n"
}

type testEnv struct {
	ctx    context.Context
	out    *bytes.Buffer
	dir    string
	runner *fakeRunner
}

// newTestEnv builds a command context the way setup does, backed by a
// fake runner, a temp project directory and a buffered printer.
func newTestEnv(t *testing.T, runner *fakeRunner, cfg *config.Config, jsonMode bool) *testEnv {
	t.Helper()
	progress.SetQuiet(true)

	if cfg == nil {
		d := config.Default()
		cfg = &d
	}
	// The detector keys on the symlink-free path.
	dir, err := filepath.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	env := &testEnv{out: &bytes.Buffer{}, dir: dir, runner: runner}

	ctx := log.WithLogger(context.Background(), log.New(io.Discard, false, false))
	ctx = output.WithPrinter(ctx, env.out, jsonMode)
	ctx = config.WithConfig(ctx, cfg)
	ctx = config.WithResolver(ctx, config.NewResolver(cfg))
	ctx = config.WithWorkDir(ctx, env.dir)
	ctx = withApp(ctx, newApp(cfg, runner))
	env.ctx = ctx
	return env
}

// run executes a standalone command with args in the env's context.
func (e *testEnv) run(cmd *cobra.Command, args ...string) error {
	cmd.SetArgs(args)
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	return cmd.ExecuteContext(e.ctx)
}
