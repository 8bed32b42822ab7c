package forge

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"regexp"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/raphi011/forgectl/internal/cmd"
)

var versionPattern = regexp.MustCompile(`\d+\.\d+\.\d+[0-9A-Za-z.+\-]*`)

// parseVersion extracts the first semantic version from "gh version 2.40.1
// (2023-12-13)" or "glab 1.46.1 (f1f7b1fb)".
func parseVersion(output string) string {
	return versionPattern.FindString(output)
}

// remoteFullName reads remote of projectPath and returns its full name
// when the remote points at host. Only the host is compared, since host
// overrides may classify it differently than ParseRemoteURL does.
func remoteFullName(ctx context.Context, runner cmd.Runner, projectPath, remote, host string) (string, bool) {
	out, err := runner.Output(ctx, cmd.Command{
		Name: "git",
		Args: []string{"-C", projectPath, "remote", "get-url", orDefault(remote, DefaultRemote)},
	})
	if err != nil {
		return "", false
	}
	p := ParseRemoteURL(string(out))
	if p == nil || !strings.EqualFold(p.Host, host) {
		return "", false
	}
	return p.FullName, true
}

// setRemote points remote of projectPath at remoteURL, replacing an
// existing remote of that name.
func setRemote(ctx context.Context, runner cmd.Runner, projectPath, remote, remoteURL string) error {
	git := func(args ...string) error {
		_, err := runner.Output(ctx, cmd.Command{
			Name: "git",
			Args: append([]string{"-C", projectPath}, args...),
		})
		return err
	}

	remote = orDefault(remote, DefaultRemote)
	if err := git("remote", "get-url", remote); err == nil {
		if err := git("remote", "remove", remote); err != nil {
			return errors.Wrapf(err, "remove existing %s", remote)
		}
	}
	if err := git("remote", "add", remote, remoteURL); err != nil {
		return errors.Wrapf(err, "add %s", remote)
	}
	return nil
}

// decodeArrays decodes one or more concatenated JSON arrays, as printed by
// "glab api --paginate".
func decodeArrays[T any](data []byte) ([]T, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	var all []T
	for {
		var page []T
		if err := dec.Decode(&page); err != nil {
			if errors.Is(err, io.EOF) {
				return all, nil
			}
			return nil, errors.Wrap(err, "decode response")
		}
		all = append(all, page...)
	}
}

// nonEmptyLines splits output into trimmed, non-empty lines.
func nonEmptyLines(output []byte) []string {
	var lines []string
	for _, line := range strings.Split(string(output), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

func lastNonEmptyLine(output []byte) string {
	lines := nonEmptyLines(output)
	if len(lines) == 0 {
		return ""
	}
	return lines[len(lines)-1]
}
