package config

import (
	"context"
	"sync"
)

type resolverKey struct{}

// ConfigResolver resolves the effective config for project directories.
// The .forgectl.toml lookup walks up from the directory commands run in,
// and merged results are cached per directory for the process lifetime.
type ConfigResolver struct {
	global *Config

	mu    sync.Mutex
	cache map[string]*Config // start dir -> merged config
}

// NewResolver creates a ConfigResolver backed by the given global config.
func NewResolver(global *Config) *ConfigResolver {
	return &ConfigResolver{
		global: global,
		cache:  make(map[string]*Config),
	}
}

// ConfigForProject returns the global config merged with the nearest
// .forgectl.toml at or above dir. Parse errors are not cached.
func (r *ConfigResolver) ConfigForProject(dir string) (*Config, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cached, ok := r.cache[dir]; ok {
		return cached, nil
	}

	merged := r.global
	if root := FindLocalRoot(dir); root != "" {
		local, err := LoadLocal(root)
		if err != nil {
			return nil, err
		}
		merged = MergeLocal(r.global, local)
	}

	r.cache[dir] = merged
	return merged, nil
}

// Global returns the global config without local overrides.
func (r *ConfigResolver) Global() *Config {
	return r.global
}

// WithResolver returns a new context carrying r.
func WithResolver(ctx context.Context, r *ConfigResolver) context.Context {
	return context.WithValue(ctx, resolverKey{}, r)
}

// ResolverFromContext returns the ConfigResolver from ctx, or nil.
func ResolverFromContext(ctx context.Context) *ConfigResolver {
	if r, ok := ctx.Value(resolverKey{}).(*ConfigResolver); ok {
		return r
	}
	return nil
}
