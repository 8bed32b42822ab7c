package forge

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/raphi011/forgectl/internal/cmd"
)

func TestDetect(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		remote     string
		wantType   PlatformType
		wantFull   string
		wantNil    bool
		selfHosted bool
	}{
		{name: "github ssh", remote: "git@github.com:owner/repo.git", wantType: TypeGitHub, wantFull: "owner/repo"},
		{name: "gitlab https", remote: "https://gitlab.com/group/sub/repo.git", wantType: TypeGitLab, wantFull: "group/sub/repo"},
		{name: "self-hosted", remote: "git@git.example.com:team/app.git", wantType: TypeGitLab, wantFull: "team/app", selfHosted: true},
		{name: "bitbucket", remote: "git@bitbucket.org:owner/repo.git", wantNil: true},
		{name: "empty output", remote: "", wantNil: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			runner := newFakeRunner(gitRemote(tt.remote))
			d := NewDetector(runner)

			got := d.Detect(context.Background(), t.TempDir(), DetectOptions{})
			if tt.wantNil {
				if got != nil {
					t.Fatalf("Detect() = %+v, want nil", *got)
				}
				return
			}
			if got == nil {
				t.Fatal("Detect() = nil, want platform")
			}
			if got.Type != tt.wantType || got.FullName != tt.wantFull || got.IsSelfHosted != tt.selfHosted {
				t.Errorf("Detect() = %+v, want type %q full %q self-hosted %v", *got, tt.wantType, tt.wantFull, tt.selfHosted)
			}
		})
	}
}

func TestDetect_RunsGitInCanonicalPath(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	link := filepath.Join(t.TempDir(), "link")
	if err := os.Symlink(dir, link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	runner := newFakeRunner(gitRemote("git@github.com:owner/repo.git"))
	d := NewDetector(runner)
	ctx := context.Background()

	d.Detect(ctx, link, DetectOptions{})
	d.Detect(ctx, dir, DetectOptions{})
	d.Detect(ctx, dir+string(filepath.Separator)+".", DetectOptions{})

	if n := runner.count("git", "remote get-url"); n != 1 {
		t.Errorf("git ran %d times for one canonical path, want 1", n)
	}

	c, _ := runner.find("git", "remote get-url")
	resolved, _ := filepath.EvalSymlinks(dir)
	if c.Args[0] != "-C" || c.Args[1] != resolved {
		t.Errorf("git args = %v, want -C %s", c.Args, resolved)
	}
	if c.Args[len(c.Args)-1] != DefaultRemote {
		t.Errorf("remote = %q, want %q", c.Args[len(c.Args)-1], DefaultRemote)
	}
}

func TestDetect_CachesResults(t *testing.T) {
	t.Parallel()

	runner := newFakeRunner(gitRemote("git@github.com:owner/repo.git"))
	d := NewDetector(runner)
	ctx := context.Background()
	dir := t.TempDir()

	first := d.Detect(ctx, dir, DetectOptions{})
	if n := runner.count("git", ""); n != 1 {
		t.Fatalf("first Detect ran git %d times, want 1", n)
	}

	second := d.Detect(ctx, dir, DetectOptions{})
	if n := runner.count("git", ""); n != 1 {
		t.Errorf("cached Detect ran git again (%d calls)", n)
	}
	if first == nil || second == nil || *first != *second {
		t.Fatalf("cached result differs: %v vs %v", first, second)
	}

	// Callers get copies, mutating one does not poison the cache.
	second.FullName = "mutated"
	if third := d.Detect(ctx, dir, DetectOptions{}); third.FullName != "owner/repo" {
		t.Errorf("cache entry was mutated through a returned value: %q", third.FullName)
	}
}

func TestDetect_CachesNegativeResults(t *testing.T) {
	t.Parallel()

	runner := newFakeRunner(func(cmd.Command) ([]byte, error) {
		return nil, &cmd.ExitError{Name: "git", Code: 2, Stderr: "error: No such remote 'origin'"}
	})
	d := NewDetector(runner)
	ctx := context.Background()
	dir := t.TempDir()

	if p := d.Detect(ctx, dir, DetectOptions{}); p != nil {
		t.Fatalf("Detect() = %+v, want nil", *p)
	}
	if p := d.Detect(ctx, dir, DetectOptions{}); p != nil {
		t.Fatalf("Detect() = %+v, want nil", *p)
	}
	if n := runner.count("git", ""); n != 1 {
		t.Errorf("git ran %d times, want 1 (negative result cached)", n)
	}

	p, ok := d.Cached(dir)
	if !ok || p != nil {
		t.Errorf("Cached() = %v, %v, want nil, true", p, ok)
	}
}

func TestDetect_Clear(t *testing.T) {
	t.Parallel()

	runner := newFakeRunner(gitRemote("git@gitlab.com:acme/widgets.git"))
	d := NewDetector(runner)
	ctx := context.Background()
	a, b := t.TempDir(), t.TempDir()

	d.Detect(ctx, a, DetectOptions{})
	d.Detect(ctx, b, DetectOptions{})
	if n := runner.count("git", ""); n != 2 {
		t.Fatalf("git ran %d times, want 2", n)
	}

	d.ClearPath(a)
	if _, ok := d.Cached(a); ok {
		t.Error("ClearPath left the entry in place")
	}
	if _, ok := d.Cached(b); !ok {
		t.Error("ClearPath dropped an unrelated entry")
	}

	d.Detect(ctx, a, DetectOptions{})
	d.Detect(ctx, b, DetectOptions{})
	if n := runner.count("git", ""); n != 3 {
		t.Errorf("git ran %d times after ClearPath, want 3", n)
	}

	d.Clear()
	d.Detect(ctx, a, DetectOptions{})
	d.Detect(ctx, b, DetectOptions{})
	if n := runner.count("git", ""); n != 5 {
		t.Errorf("git ran %d times after Clear, want 5", n)
	}
}

func TestDetect_ForceRefresh(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	remote := "git@github.com:owner/old.git"
	runner := newFakeRunner(func(cmd.Command) ([]byte, error) {
		mu.Lock()
		defer mu.Unlock()
		return []byte(remote), nil
	})
	d := NewDetector(runner)
	ctx := context.Background()
	dir := t.TempDir()

	if p := d.Detect(ctx, dir, DetectOptions{}); p.Repo != "old" {
		t.Fatalf("Repo = %q, want old", p.Repo)
	}

	mu.Lock()
	remote = "git@github.com:owner/new.git"
	mu.Unlock()

	if p := d.Detect(ctx, dir, DetectOptions{}); p.Repo != "old" {
		t.Errorf("stale entry expected without refresh, got %q", p.Repo)
	}
	if p := d.Detect(ctx, dir, DetectOptions{ForceRefresh: true}); p.Repo != "new" {
		t.Errorf("ForceRefresh Repo = %q, want new", p.Repo)
	}
	if p := d.Detect(ctx, dir, DetectOptions{}); p.Repo != "new" {
		t.Errorf("refreshed entry not cached, got %q", p.Repo)
	}
}

func TestDetect_RemoteName(t *testing.T) {
	t.Parallel()

	runner := newFakeRunner(func(c cmd.Command) ([]byte, error) {
		switch c.Args[len(c.Args)-1] {
		case "upstream":
			return []byte("https://github.com/upstream/repo.git"), nil
		case "fork":
			return []byte("https://gitlab.com/fork/repo.git"), nil
		}
		return nil, errors.New("no such remote")
	})
	ctx := context.Background()

	d := NewDetector(runner, WithRemote("upstream"))
	if p := d.Detect(ctx, t.TempDir(), DetectOptions{}); p == nil || p.Owner != "upstream" {
		t.Errorf("WithRemote(upstream) Detect() = %v", p)
	}
	if p := d.Detect(ctx, t.TempDir(), DetectOptions{RemoteName: "fork"}); p == nil || p.Owner != "fork" {
		t.Errorf("RemoteName fork Detect() = %v", p)
	}
	if p := NewDetector(runner).Detect(ctx, t.TempDir(), DetectOptions{}); p != nil {
		t.Errorf("default remote origin Detect() = %+v, want nil", *p)
	}
}

func TestDetect_HostOverrides(t *testing.T) {
	t.Parallel()

	runner := newFakeRunner(gitRemote("git@code.corp.example:team/app.git"))
	d := NewDetector(runner, WithHostOverrides(map[string]PlatformType{
		"Code.Corp.Example": TypeGitHub,
	}))

	p := d.Detect(context.Background(), t.TempDir(), DetectOptions{})
	if p == nil {
		t.Fatal("Detect() = nil")
	}
	if !p.IsGitHub || p.IsGitLab || p.Type != TypeGitHub {
		t.Errorf("override not applied: %+v", *p)
	}
	if !p.IsSelfHosted {
		t.Error("IsSelfHosted = false, want true")
	}
}

func TestDetect_ConcurrentMisses(t *testing.T) {
	t.Parallel()

	runner := newFakeRunner(gitRemote("git@github.com:owner/repo.git"))
	d := NewDetector(runner)
	dir := t.TempDir()

	const workers = 8
	results := make([]*Platform, workers)
	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = d.Detect(context.Background(), dir, DetectOptions{})
		}()
	}
	wg.Wait()

	for i, p := range results {
		if p == nil || p.FullName != "owner/repo" {
			t.Errorf("worker %d got %v", i, p)
		}
	}
	// Concurrent misses may each run git, but never more than once per caller.
	if n := runner.count("git", ""); n < 1 || n > workers {
		t.Errorf("git ran %d times, want between 1 and %d", n, workers)
	}

	before := runner.count("git", "")
	d.Detect(context.Background(), dir, DetectOptions{})
	if after := runner.count("git", ""); after != before {
		t.Error("Detect after concurrent misses was not served from cache")
	}
}
