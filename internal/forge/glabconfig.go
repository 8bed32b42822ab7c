package forge

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"
)

// glabConfig is the part of glab's config.yml we read.
type glabConfig struct {
	Hosts map[string]glabHost `yaml:"hosts"`
}

type glabHost struct {
	Token   string `yaml:"token"`
	User    string `yaml:"user"`
	APIHost string `yaml:"api_host"`
}

// DefaultGlabConfigDir returns the directory glab stores config.yml in:
// $GLAB_CONFIG_DIR, else $XDG_CONFIG_HOME/glab-cli, else ~/.config/glab-cli.
func DefaultGlabConfigDir() string {
	if dir := os.Getenv("GLAB_CONFIG_DIR"); dir != "" {
		return dir
	}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "glab-cli")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "glab-cli")
}

// readGlabToken returns the token glab stored for host.
func readGlabToken(configDir, host string) (string, error) {
	if configDir == "" {
		return "", errors.New("glab config directory unknown")
	}
	path := filepath.Join(configDir, "config.yml")

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", notLoggedIn(host, "no glab config at "+path)
		}
		return "", errors.Wrapf(err, "read %s", path)
	}

	var cfg glabConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return "", errors.Wrapf(err, "parse %s", path)
	}

	for name, entry := range cfg.Hosts {
		if !strings.EqualFold(name, host) {
			continue
		}
		if token := strings.TrimSpace(entry.Token); token != "" {
			return token, nil
		}
		return "", notLoggedIn(host, "no token stored for "+host+" in "+path)
	}
	return "", notLoggedIn(host, "no entry for "+host+" in "+path)
}

func notLoggedIn(host, detail string) error {
	err := errors.Mark(errors.New(detail), ErrNotAuthenticated)
	return errors.WithHint(err, "run 'glab auth login --hostname "+host+"'")
}
