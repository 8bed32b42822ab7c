package forge

import (
	"context"
	"path/filepath"
	"strings"
	"sync"

	"github.com/raphi011/forgectl/internal/cmd"
	"github.com/raphi011/forgectl/internal/log"
)

// DefaultRemote is the remote read when none is configured.
const DefaultRemote = "origin"

// DetectOptions tunes a single Detect call.
type DetectOptions struct {
	RemoteName   string // default DefaultRemote
	ForceRefresh bool   // ignore any cached result
}

// Detector resolves project paths to platforms by reading the git remote.
// Results, including "not detected", are cached per canonical path until
// cleared.
type Detector struct {
	runner        cmd.Runner
	remote        string
	hostOverrides map[string]PlatformType

	mu    sync.Mutex
	cache map[string]*Platform // nil value: checked, not detected
}

// DetectorOption configures a Detector.
type DetectorOption func(*Detector)

// WithRemote changes the default remote name.
func WithRemote(name string) DetectorOption {
	return func(d *Detector) {
		if name != "" {
			d.remote = name
		}
	}
}

// WithHostOverrides forces the platform type for specific hosts, for
// self-hosted GitHub instances whose name does not contain "github".
func WithHostOverrides(hosts map[string]PlatformType) DetectorOption {
	return func(d *Detector) {
		for host, t := range hosts {
			d.hostOverrides[strings.ToLower(host)] = t
		}
	}
}

// NewDetector creates a Detector running git through runner.
func NewDetector(runner cmd.Runner, opts ...DetectorOption) *Detector {
	d := &Detector{
		runner:        runner,
		remote:        DefaultRemote,
		hostOverrides: make(map[string]PlatformType),
		cache:         make(map[string]*Platform),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Detect returns the platform projectPath's remote points at, or nil.
// A cache miss runs exactly one git command; a hit runs none.
func (d *Detector) Detect(ctx context.Context, projectPath string, opts DetectOptions) *Platform {
	key := canonicalPath(projectPath)
	l := log.FromContext(ctx)

	if !opts.ForceRefresh {
		if p, ok := d.lookup(key); ok {
			l.Debug("platform cache hit", "path", key)
			return p.clone()
		}
	}

	remote := opts.RemoteName
	if remote == "" {
		remote = d.remote
	}

	// The lock is not held here: concurrent misses for one path may both run git.
	p := d.detectUncached(ctx, key, remote)

	d.mu.Lock()
	d.cache[key] = p
	d.mu.Unlock()

	if p == nil {
		l.Debug("no platform detected", "path", key, "remote", remote)
	} else {
		l.Debug("detected platform", "path", key, "platform", p.String())
	}
	return p.clone()
}

func (d *Detector) detectUncached(ctx context.Context, dir, remote string) *Platform {
	out, err := d.runner.Output(ctx, cmd.Command{
		Name: "git",
		Args: []string{"-C", dir, "remote", "get-url", remote},
	})
	if err != nil {
		return nil
	}

	url := strings.TrimSpace(string(out))
	if url == "" {
		return nil
	}

	p := ParseRemoteURL(url)
	if p == nil {
		return nil
	}
	if t, ok := d.hostOverrides[p.Host]; ok && t != p.Type {
		overridden := p.WithType(t)
		return &overridden
	}
	return p
}

func (d *Detector) lookup(key string) (*Platform, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	p, ok := d.cache[key]
	return p, ok
}

// Clear drops every cached result.
func (d *Detector) Clear() {
	d.mu.Lock()
	defer d.mu.Unlock()
	clear(d.cache)
}

// ClearPath drops the cached result for one project path.
func (d *Detector) ClearPath(projectPath string) {
	key := canonicalPath(projectPath)
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.cache, key)
}

// Cached reports the cached result for projectPath without running git.
func (d *Detector) Cached(projectPath string) (*Platform, bool) {
	p, ok := d.lookup(canonicalPath(projectPath))
	return p.clone(), ok
}

func (p *Platform) clone() *Platform {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}

// canonicalPath makes projectPath absolute and clean, resolving symlinks
// when the path exists.
func canonicalPath(projectPath string) string {
	abs, err := filepath.Abs(projectPath)
	if err != nil {
		abs = filepath.Clean(projectPath)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved
	}
	return abs
}
