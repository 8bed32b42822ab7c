// Package cmd provides helpers for executing external commands with proper
// error handling.
//
// Commands are run through the [Runner] interface so that callers (platform
// detection, the gh and glab adapters) can be tested against a fake. The
// production implementation, [Exec], captures stderr and returns it as the
// error message, making command failures more informative for users.
//
// # Usage
//
//	out, err := cmd.Exec{}.Output(ctx, cmd.Command{
//	    Dir:  repoPath,
//	    Name: "git",
//	    Args: []string{"remote", "get-url", "origin"},
//	})
//	if err != nil {
//	    // err.Error() is git's stderr when it printed one
//	}
//
// [Runner.Stream] hands combined stdout/stderr to a callback as it arrives,
// which is what interactive login flows need to scrape device codes and
// authorization URLs before the process exits.
//
// # Design Notes
//
// forgectl shells out to git/gh/glab rather than using Go libraries or
// calling hosting APIs. Credentials stay in the CLIs' own stored sessions
// and user configuration (SSH keys, credential helpers) keeps working.
package cmd
