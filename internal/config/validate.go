package config

import (
	"fmt"
	"slices"
	"strings"

	"github.com/cockroachdb/errors"
)

// Valid enum values for configuration fields.
var (
	ValidForgeTypes = []string{"github", "gitlab"}
	ValidThemeNames = []string{"default", "dracula", "nord"}
	ValidThemeModes = []string{"light", "dark", "auto"}
)

// validateEnum checks that value (if non-empty) is one of the allowed values.
// The allowed values travel as a hint.
func validateEnum(value, field string, allowed []string) error {
	if value == "" || slices.Contains(allowed, value) {
		return nil
	}
	return errors.WithHintf(
		errors.Newf("invalid %s %q", field, value),
		"must be %s", formatOptions(allowed))
}

// validateRemote rejects values git would not accept as a remote name.
func validateRemote(name string) error {
	if strings.ContainsAny(name, " \t\n/:") || strings.HasPrefix(name, "-") {
		return errors.WithHint(
			errors.Newf("invalid remote %q", name),
			"use a remote name such as origin or upstream, not a URL or branch")
	}
	return nil
}

// normalizeHosts lowercases host keys and checks every value is a known
// platform type. Values are lowercased too, so "GitHub" is accepted.
func normalizeHosts(hosts map[string]string) (map[string]string, error) {
	out := make(map[string]string, len(hosts))
	for host, forgeType := range hosts {
		key := strings.ToLower(strings.TrimSpace(host))
		if key == "" || strings.Contains(key, "/") {
			return nil, errors.Newf("invalid host %q in [hosts]: use a bare hostname", host)
		}

		forgeType = strings.ToLower(strings.TrimSpace(forgeType))
		if forgeType == "" {
			return nil, errors.Newf("empty platform for host %q", host)
		}
		if err := validateEnum(forgeType, "platform for host "+key, ValidForgeTypes); err != nil {
			return nil, err
		}
		out[key] = forgeType
	}
	return out, nil
}

// formatOptions formats a list of allowed values for error messages.
// E.g., ["a", "b", "c"] -> `"a", "b", or "c"`
func formatOptions(opts []string) string {
	quoted := make([]string, len(opts))
	for i, o := range opts {
		quoted[i] = fmt.Sprintf("%q", o)
	}
	if len(quoted) <= 2 {
		return strings.Join(quoted, " or ")
	}
	return strings.Join(quoted[:len(quoted)-1], ", ") + ", or " + quoted[len(quoted)-1]
}
