// Package remotewatch invalidates cached platform detections when a
// project's git config changes, so `detect --watch` and long-running
// callers notice `git remote set-url` without a manual refresh.
package remotewatch

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/fsnotify/fsnotify"

	"github.com/raphi011/forgectl/internal/cmd"
	"github.com/raphi011/forgectl/internal/log"
)

// DefaultDebounce collapses the burst of events git produces when it
// rewrites config through config.lock.
const DefaultDebounce = 200 * time.Millisecond

// Invalidator drops cached state for a project. *forge.Detector satisfies it.
type Invalidator interface {
	ClearPath(projectPath string)
}

// Watcher watches the git directories of registered projects.
type Watcher struct {
	inv      Invalidator
	runner   cmd.Runner
	fw       *fsnotify.Watcher
	debounce time.Duration

	mu       sync.Mutex
	projects map[string]string // git dir -> project path
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets how long to wait for events to settle before invalidating.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) { w.debounce = d }
}

// New creates a watcher. Call Close when done.
func New(inv Invalidator, runner cmd.Runner, opts ...Option) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "create file watcher")
	}
	w := &Watcher{
		inv:      inv,
		runner:   runner,
		fw:       fw,
		debounce: DefaultDebounce,
		projects: make(map[string]string),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Add starts watching the git config of projectPath. Linked worktrees
// resolve to the shared git directory, where remotes live.
func (w *Watcher) Add(ctx context.Context, projectPath string) error {
	out, err := w.runner.Output(ctx, cmd.Command{
		Dir:  projectPath,
		Name: "git",
		Args: []string{"rev-parse", "--path-format=absolute", "--git-common-dir"},
	})
	if err != nil {
		return errors.Wrapf(err, "resolve git directory of %s", projectPath)
	}
	gitDir := filepath.Clean(strings.TrimSpace(string(out)))

	// git replaces config by renaming config.lock, which drops a watch on
	// the file itself; watch the directory instead.
	if err := w.fw.Add(gitDir); err != nil {
		return errors.Wrapf(err, "watch %s", gitDir)
	}

	w.mu.Lock()
	w.projects[gitDir] = projectPath
	w.mu.Unlock()

	log.FromContext(ctx).Debug("watching git config", "project", projectPath, "gitdir", gitDir)
	return nil
}

// project maps an event path to the project it belongs to.
func (w *Watcher) project(eventPath string) (string, bool) {
	if filepath.Base(eventPath) != "config" {
		return "", false
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	p, ok := w.projects[filepath.Dir(eventPath)]
	return p, ok
}

// Run processes events until ctx is cancelled or the watcher is closed.
// After a project's config settles, its cached detection is cleared and
// onChange (if set) is called with the project path.
func (w *Watcher) Run(ctx context.Context, onChange func(projectPath string)) error {
	l := log.FromContext(ctx)

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()
	dirty := make(map[string]struct{})

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.fw.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			p, ok := w.project(ev.Name)
			if !ok {
				continue
			}
			if len(dirty) == 0 {
				timer.Reset(w.debounce)
			}
			dirty[p] = struct{}{}
		case <-timer.C:
			for p := range dirty {
				w.inv.ClearPath(p)
				l.Debug("git config changed", "project", p)
				if onChange != nil {
					onChange(p)
				}
			}
			clear(dirty)
		case err, ok := <-w.fw.Errors:
			if !ok {
				return nil
			}
			l.Warnf("file watcher: %v", err)
		}
	}
}

// Close stops the watcher. Run returns once its channels close.
func (w *Watcher) Close() error {
	return w.fw.Close()
}
