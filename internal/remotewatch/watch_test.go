package remotewatch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/raphi011/forgectl/internal/cmd"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// gitDirRunner answers rev-parse with a fixed git directory.
type gitDirRunner struct {
	gitDir string
}

func (r gitDirRunner) LookPath(name string) (string, error) { return "/usr/bin/" + name, nil }

func (r gitDirRunner) Output(ctx context.Context, c cmd.Command) ([]byte, error) {
	if r.gitDir == "" {
		return nil, &cmd.ExitError{Name: c.Name, Code: 128, Stderr: "fatal: not a git repository"}
	}
	return []byte(r.gitDir + "\n"), nil
}

func (r gitDirRunner) Stream(ctx context.Context, c cmd.Command, onOutput func([]byte)) error {
	return nil
}

type recorder struct {
	mu      sync.Mutex
	cleared []string
}

func (r *recorder) ClearPath(p string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cleared = append(r.cleared, p)
}

func (r *recorder) paths() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.cleared...)
}

// notify forwards the first change and drops the rest so Run never blocks.
func notify(ch chan string) func(string) {
	return func(p string) {
		select {
		case ch <- p:
		default:
		}
	}
}

func startWatcher(t *testing.T, gitDir string, onChange func(string)) (*Watcher, *recorder) {
	t.Helper()

	rec := &recorder{}
	w, err := New(rec, gitDirRunner{gitDir: gitDir}, WithDebounce(20*time.Millisecond))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := w.Add(context.Background(), "/src/widgets"); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = w.Run(ctx, onChange)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
		_ = w.Close()
	})
	return w, rec
}

func TestWatcher_ConfigChangeClearsPath(t *testing.T) {
	gitDir := t.TempDir()
	changed := make(chan string, 1)
	_, rec := startWatcher(t, gitDir, notify(changed))

	if err := os.WriteFile(filepath.Join(gitDir, "config"), []byte("[remote \"origin\"]\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case p := <-changed:
		if p != "/src/widgets" {
			t.Errorf("onChange(%q), want /src/widgets", p)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for config change")
	}
	if got := rec.paths(); len(got) == 0 || got[0] != "/src/widgets" {
		t.Errorf("ClearPath calls = %v", got)
	}
}

func TestWatcher_LockRenameClearsPath(t *testing.T) {
	gitDir := t.TempDir()
	changed := make(chan string, 1)
	startWatcher(t, gitDir, notify(changed))

	lock := filepath.Join(gitDir, "config.lock")
	if err := os.WriteFile(lock, []byte("[core]\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Rename(lock, filepath.Join(gitDir, "config")); err != nil {
		t.Fatal(err)
	}

	select {
	case <-changed:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for config rename")
	}
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	gitDir := t.TempDir()
	_, rec := startWatcher(t, gitDir, nil)

	if err := os.WriteFile(filepath.Join(gitDir, "HEAD"), []byte("ref: refs/heads/main\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	time.Sleep(200 * time.Millisecond)

	if got := rec.paths(); len(got) != 0 {
		t.Errorf("ClearPath calls = %v, want none", got)
	}
}

func TestWatcher_AddOutsideRepo(t *testing.T) {
	w, err := New(&recorder{}, gitDirRunner{})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer w.Close()

	if err := w.Add(context.Background(), t.TempDir()); err == nil {
		t.Error("Add() outside a repository should fail")
	}
}

func TestWatcher_RunStopsOnClose(t *testing.T) {
	w, err := New(&recorder{}, gitDirRunner{gitDir: t.TempDir()})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- w.Run(context.Background(), nil) }()

	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after Close")
	}
}
