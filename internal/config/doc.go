// Package config handles loading and validation of forgectl configuration.
//
// Configuration is read from $XDG_CONFIG_HOME/forgectl/config.toml with
// environment variable overrides.
//
// # Configuration Sources (highest priority first)
//
//   - FORGECTL_REMOTE / FORGECTL_BROWSER env vars
//   - .forgectl.toml at the project root (remote, hosts)
//   - Global config file
//   - Default values
//
// # Key Settings
//
//   - remote: git remote read for platform detection (default: "origin")
//   - browser: command used to open login URLs
//   - glab_config_dir: where glab keeps config.yml (must be absolute or ~/...)
//
// The [hosts] section maps self-hosted domains to a platform type:
//
//	[hosts]
//	"code.mycompany.com" = "github"
//
// Hosts containing "github" are GitHub without a mapping; every other host
// is GitLab unless mapped.
package config
