package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/adrg/xdg"
	"github.com/cockroachdb/errors"
)

// DefaultRemote is the git remote read for detection when none is configured.
const DefaultRemote = "origin"

// ThemeConfig selects the colour theme for tables and status output.
type ThemeConfig struct {
	Name     string `toml:"name" json:"name,omitempty"`   // preset: default, dracula, nord
	Mode     string `toml:"mode" json:"mode,omitempty"`   // light, dark, auto
	Nerdfont bool   `toml:"nerdfont" json:"nerdfont"`     // use nerd font state symbols
}

// Config holds the forgectl configuration
type Config struct {
	Remote        string            `toml:"remote" json:"remote"`                           // git remote used for detection
	Browser       string            `toml:"browser" json:"browser,omitempty"`               // command used to open login URLs
	GlabConfigDir string            `toml:"glab_config_dir" json:"glabConfigDir,omitempty"` // where glab keeps config.yml
	Hosts         map[string]string `toml:"hosts" json:"hosts"`                             // host -> "github" or "gitlab"
	Theme         ThemeConfig       `toml:"theme" json:"theme"`
}

// Default returns the default configuration
func Default() Config {
	return Config{
		Remote: DefaultRemote,
		Hosts:  map[string]string{},
	}
}

// Path returns the location of the config file,
// $XDG_CONFIG_HOME/forgectl/config.toml.
func Path() string {
	return filepath.Join(xdg.ConfigHome, "forgectl", "config.toml")
}

// Load reads the config file at Path.
// Returns Default() if the file doesn't exist (no error).
func Load() (Config, error) {
	return LoadFile(Path())
}

// LoadFile reads config from path and applies environment overrides.
// A missing file yields the defaults; an invalid one is an error.
func LoadFile(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		// defaults
	case err != nil:
		return Default(), errors.Wrap(err, "read config file")
	default:
		md, err := toml.Decode(string(data), &cfg)
		if err != nil {
			return Default(), errors.WithHint(
				errors.Wrapf(err, "parse config file %s", path),
				"run 'forgectl config init --force' to start from a fresh template")
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return Default(), errors.Newf("unknown config key %q in %s", undecoded[0].String(), path)
		}
	}

	applyEnvOverrides(&cfg)

	if err := cfg.normalize(); err != nil {
		return Default(), errors.Wrapf(err, "invalid config %s", path)
	}
	return cfg, nil
}

// applyEnvOverrides applies FORGECTL_* environment variables on top of the file.
func applyEnvOverrides(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv("FORGECTL_REMOTE")); v != "" {
		cfg.Remote = v
	}
	if v := strings.TrimSpace(os.Getenv("FORGECTL_BROWSER")); v != "" {
		cfg.Browser = v
	}
}

// normalize validates cfg and fills derived values in place.
func (c *Config) normalize() error {
	if c.Remote == "" {
		c.Remote = DefaultRemote
	}
	if err := validateRemote(c.Remote); err != nil {
		return err
	}

	hosts, err := normalizeHosts(c.Hosts)
	if err != nil {
		return err
	}
	c.Hosts = hosts

	if err := ValidatePath(c.GlabConfigDir, "glab_config_dir"); err != nil {
		return err
	}
	expanded, err := expandPath(c.GlabConfigDir)
	if err != nil {
		return errors.Wrap(err, "expand glab_config_dir")
	}
	c.GlabConfigDir = expanded

	if err := validateEnum(c.Theme.Name, "theme.name", ValidThemeNames); err != nil {
		return err
	}
	return validateEnum(c.Theme.Mode, "theme.mode", ValidThemeModes)
}

// ValidatePath checks that the path is absolute or starts with ~
// Returns error if path is relative (like "." or "..")
func ValidatePath(path, fieldName string) error {
	if path == "" {
		return nil
	}
	if path[0] == '~' {
		return nil
	}
	if !filepath.IsAbs(path) {
		return errors.Newf("%s must be absolute or start with ~, got: %q", fieldName, path)
	}
	return nil
}

// expandPath expands ~ to the user's home directory
func expandPath(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	if path == "~" {
		return os.UserHomeDir()
	}
	if rest, ok := strings.CutPrefix(path, "~/"); ok {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, rest), nil
	}
	return path, nil
}

const defaultConfig = `# forgectl configuration

# Git remote read to detect a project's platform.
# Overridden by FORGECTL_REMOTE.
# remote = "origin"

# Command used to open login URLs. Defaults to $BROWSER, then the
# platform opener (open, xdg-open, wslview).
# Overridden by FORGECTL_BROWSER.
# browser = "firefox"

# Directory glab keeps config.yml in, used to read GitLab tokens.
# Defaults to $GLAB_CONFIG_DIR, then ~/.config/glab-cli.
# glab_config_dir = "~/.config/glab-cli"

# Host mappings for self-hosted instances whose name does not tell the
# platform. Hosts containing "github" are GitHub, every other host is
# treated as GitLab unless listed here.
#
# [hosts]
# "code.mycompany.com" = "github"     # GitHub Enterprise
# "git.internal.corp" = "gitlab"      # Self-hosted GitLab
#
# Authenticate with the respective CLI as well:
#   forgectl auth login -C <project>
#   gh auth login --hostname code.mycompany.com
#   glab auth login --hostname git.internal.corp

# Output theme
# [theme]
# name = "default"   # default, dracula, nord
# mode = "auto"      # light, dark, auto
# nerdfont = false
`

// Init creates a default config file at Path().
// If force is true, overwrites an existing file.
// Returns the path to the created file.
func Init(force bool) (string, error) {
	path := Path()

	if !force {
		if _, err := os.Stat(path); err == nil {
			return "", errors.WithHint(
				errors.Newf("config file already exists: %s", path),
				"use --force to overwrite it")
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", errors.Wrap(err, "create config directory")
	}
	if err := os.WriteFile(path, []byte(defaultConfig), 0o644); err != nil {
		return "", errors.Wrap(err, "write config file")
	}
	return path, nil
}

// DefaultConfig returns the template written by Init.
func DefaultConfig() string {
	return defaultConfig
}

type configKey struct{}

type workDirKey struct{}

// WithConfig returns a new context carrying cfg.
func WithConfig(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// FromContext returns the config stored in ctx, or nil.
func FromContext(ctx context.Context) *Config {
	if cfg, ok := ctx.Value(configKey{}).(*Config); ok {
		return cfg
	}
	return nil
}

// WithWorkDir returns a new context carrying the project directory (-C).
func WithWorkDir(ctx context.Context, dir string) context.Context {
	return context.WithValue(ctx, workDirKey{}, dir)
}

// WorkDirFromContext returns the project directory stored in ctx,
// falling back to the process working directory.
func WorkDirFromContext(ctx context.Context) string {
	if dir, ok := ctx.Value(workDirKey{}).(string); ok && dir != "" {
		return dir
	}
	wd, _ := os.Getwd()
	return wd
}
