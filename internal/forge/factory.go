package forge

import (
	"context"
	"os"

	"github.com/cockroachdb/errors"

	"github.com/raphi011/forgectl/internal/browser"
	"github.com/raphi011/forgectl/internal/cmd"
)

// Deps are the collaborators adapters run against. Zero fields get
// production defaults.
type Deps struct {
	Runner        cmd.Runner
	Browser       browser.Opener
	ProjectIDs    *ProjectIDCache
	GlabConfigDir string
	TempDir       string
	Remote        string // git remote adapters read and write

	// OnLoginPrompt, if set, is called once during StartAuth with the
	// device code and URL the user needs, right after the browser open
	// was attempted.
	OnLoginPrompt func(AuthResult)
}

func (d Deps) withDefaults() Deps {
	if d.Runner == nil {
		d.Runner = cmd.Exec{}
	}
	if d.Browser == nil {
		d.Browser = browser.System{}
	}
	if d.ProjectIDs == nil {
		d.ProjectIDs = NewProjectIDCache()
	}
	if d.GlabConfigDir == "" {
		d.GlabConfigDir = DefaultGlabConfigDir()
	}
	if d.TempDir == "" {
		d.TempDir = os.TempDir()
	}
	if d.Remote == "" {
		d.Remote = DefaultRemote
	}
	return d
}

// Constructor builds an adapter for a platform.
type Constructor func(p Platform, deps Deps) Adapter

// Factory selects and constructs adapters. It keeps no adapters around:
// each call builds a fresh one from the current platform descriptor. The
// GitLab project-id cache in deps is shared by every adapter it creates.
type Factory struct {
	detector     *Detector
	deps         Deps
	constructors map[PlatformType]Constructor
}

// NewFactory creates a factory with the GitHub and GitLab adapters
// registered. Adapters use the detector's remote unless deps names one.
func NewFactory(detector *Detector, deps Deps) *Factory {
	if deps.Remote == "" && detector != nil {
		deps.Remote = detector.remote
	}
	f := &Factory{
		detector:     detector,
		deps:         deps.withDefaults(),
		constructors: make(map[PlatformType]Constructor),
	}
	f.Register(TypeGitHub, func(p Platform, deps Deps) Adapter { return NewGitHub(p, deps) })
	f.Register(TypeGitLab, func(p Platform, deps Deps) Adapter { return NewGitLab(p, deps) })
	return f
}

// WithRemote returns a factory whose adapters read and write the named
// remote. It shares the detector, constructors and project-id cache.
func (f *Factory) WithRemote(name string) *Factory {
	if name == "" {
		return f
	}
	c := *f
	c.deps.Remote = name
	return &c
}

// Register installs the constructor for t, replacing any existing one.
func (f *Factory) Register(t PlatformType, c Constructor) {
	f.constructors[t] = c
}

// Detector returns the detector used by GetAdapter.
func (f *Factory) Detector() *Detector {
	return f.detector
}

// CreateAdapter returns the adapter for p.Type.
func (f *Factory) CreateAdapter(p Platform) (Adapter, error) {
	return f.create(p, f.deps)
}

func (f *Factory) create(p Platform, deps Deps) (Adapter, error) {
	c, ok := f.constructors[p.Type]
	if !ok {
		return nil, errors.Wrapf(ErrUnsupportedPlatform, "%q", p.Type)
	}
	return c(p, deps), nil
}

// GetAdapter detects the platform of projectPath and returns its adapter.
func (f *Factory) GetAdapter(ctx context.Context, projectPath string) (Adapter, error) {
	return f.GetAdapterWith(ctx, projectPath, DetectOptions{})
}

// GetAdapterWith is GetAdapter with explicit detection options. The
// adapter reads and writes the remote detection used.
func (f *Factory) GetAdapterWith(ctx context.Context, projectPath string, opts DetectOptions) (Adapter, error) {
	p := f.detector.Detect(ctx, projectPath, opts)
	if p == nil {
		return nil, errors.WithHint(
			errors.Wrapf(ErrPlatformNotDetected, "%s", projectPath),
			"make sure the project has a GitHub or GitLab remote named "+orDefault(opts.RemoteName, f.detector.remote))
	}
	deps := f.deps
	if opts.RemoteName != "" {
		deps.Remote = opts.RemoteName
	}
	return f.create(*p, deps)
}
