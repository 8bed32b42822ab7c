package forge

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/raphi011/forgectl/internal/browser"
	"github.com/raphi011/forgectl/internal/cmd"
)

var (
	// gh prints "! First copy your one-time code: 1A2B-3C4D".
	deviceCodePattern = regexp.MustCompile(`\b([A-Z0-9]{4}-[A-Z0-9]{4})\b`)
	urlPattern        = regexp.MustCompile(`https?://[^\s'"<>]+`)
)

// extractDeviceCode finds the one-time device code in gh login output.
// Only text after "one-time code" is considered.
func extractDeviceCode(output string) string {
	i := strings.Index(strings.ToLower(output), "one-time code")
	if i < 0 {
		return ""
	}
	return deviceCodePattern.FindString(output[i:])
}

// extractAuthURL returns the first URL in output on host whose path
// contains pathPart.
func extractAuthURL(output, host, pathPart string) string {
	for _, raw := range urlPattern.FindAllString(output, -1) {
		raw = strings.TrimRight(raw, ".,;:!)]")
		u, err := url.Parse(raw)
		if err != nil {
			continue
		}
		if strings.EqualFold(u.Hostname(), host) && strings.Contains(u.Path, pathPart) {
			return raw
		}
	}
	return ""
}

// loginFlow accumulates login output and opens the browser once, as soon
// as there is something to open.
type loginFlow struct {
	host       string
	authPath   string // only URLs whose path contains this are opened
	deviceCode bool   // wait for a device code before opening (gh)
	defaultURL string // opened when the CLI prints a code but no URL
	opener     browser.Opener
	notify     func(AuthResult)

	output    strings.Builder
	result    AuthResult
	attempted bool
}

func (f *loginFlow) feed(chunk []byte) {
	f.output.Write(chunk)
	out := f.output.String()

	if f.deviceCode && f.result.DeviceCode == "" {
		f.result.DeviceCode = extractDeviceCode(out)
	}
	if f.result.AuthURL == "" {
		f.result.AuthURL = extractAuthURL(out, f.host, f.authPath)
	}
	if f.attempted {
		return
	}

	target := f.result.AuthURL
	if f.deviceCode {
		if f.result.DeviceCode == "" {
			return
		}
		if target == "" {
			target = f.defaultURL
		}
	}
	if target == "" {
		return
	}

	f.attempted = true
	f.result.AuthURL = target
	if err := f.opener.Open(target); err != nil {
		f.result.FallbackURL = target
	} else {
		f.result.BrowserOpened = true
	}
	if f.notify != nil {
		f.notify(f.result)
	}
}

// run executes the login command. The exit code alone decides success.
func (f *loginFlow) run(ctx context.Context, runner cmd.Runner, c cmd.Command) AuthResult {
	err := runner.Stream(ctx, c, f.feed)

	res := f.result
	if err != nil {
		res.Success = false
		res.Message = loginFailure(c.Name, err, f.output.String())
		if res.AuthURL != "" && !res.BrowserOpened {
			res.FallbackURL = res.AuthURL
		}
		return res
	}

	res.Success = true
	res.Message = fmt.Sprintf("Authenticated with %s", f.host)
	return res
}

func loginFailure(cli string, err error, output string) string {
	last := lastLine(output)
	if code := cmd.ExitCode(err); code > 0 {
		if last != "" {
			return fmt.Sprintf("%s auth login exited with code %d: %s", cli, code, last)
		}
		return fmt.Sprintf("%s auth login exited with code %d", cli, code)
	}
	return fmt.Sprintf("%s auth login failed: %v", cli, err)
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}
