package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/cockroachdb/errors"
)

// LocalConfigFileName is the per-project config file.
const LocalConfigFileName = ".forgectl.toml"

// LocalConfig holds per-project overrides from .forgectl.toml.
// Zero values mean "not set" (inherit from global).
type LocalConfig struct {
	Remote string            `toml:"remote"`
	Hosts  map[string]string `toml:"hosts"` // added to global hosts
}

// FindLocalRoot walks up from dir to the directory holding
// .forgectl.toml. The search stops at the enclosing git work tree root
// (a directory containing .git) so a stray file above the project is not
// picked up. Returns "" when there is none.
func FindLocalRoot(dir string) string {
	dir = filepath.Clean(dir)
	for {
		if _, err := os.Stat(filepath.Join(dir, LocalConfigFileName)); err == nil {
			return dir
		}
		if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
			return ""
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// LoadLocal reads .forgectl.toml from projectPath.
// Returns nil (no error) if the file doesn't exist.
func LoadLocal(projectPath string) (*LocalConfig, error) {
	configFile := filepath.Join(projectPath, LocalConfigFileName)

	data, err := os.ReadFile(configFile)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "read local config %s", configFile)
	}

	var local LocalConfig
	md, err := toml.Decode(string(data), &local)
	if err != nil {
		return nil, errors.Wrapf(err, "parse local config %s", configFile)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, errors.WithHint(
			errors.Newf("unknown key %q in %s", undecoded[0].String(), configFile),
			"project config only supports remote and [hosts]")
	}

	if local.Remote != "" {
		if err := validateRemote(local.Remote); err != nil {
			return nil, errors.Wrapf(err, "invalid local config %s", configFile)
		}
	}
	hosts, err := normalizeHosts(local.Hosts)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid local config %s", configFile)
	}
	local.Hosts = hosts
	return &local, nil
}
