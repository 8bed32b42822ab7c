// Package browser opens URLs in the user's web browser.
package browser

import (
	"os"
	"os/exec"
	"runtime"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/cockroachdb/errors"
)

// Opener opens a URL for the user.
type Opener interface {
	Open(url string) error
}

// OpenerFunc adapts a function to Opener.
type OpenerFunc func(url string) error

// Open calls f(url).
func (f OpenerFunc) Open(url string) error {
	return f(url)
}

// System opens URLs with the platform's default handler, or with Command
// when set (e.g. "firefox --new-window").
type System struct {
	Command string
}

// Open starts the browser and returns without waiting for it to exit.
func (s System) Open(url string) error {
	name, args := s.command()
	if name == "" {
		return errors.New("no browser command available")
	}
	if _, err := exec.LookPath(name); err != nil {
		return errors.Wrapf(err, "open browser")
	}

	c := exec.Command(name, append(args, url)...)
	if err := c.Start(); err != nil {
		return errors.Wrapf(err, "open browser with %s", name)
	}
	// Reap the child without blocking the caller.
	go func() { _ = c.Wait() }()
	return nil
}

func (s System) command() (string, []string) {
	if fields := strings.Fields(s.Command); len(fields) > 0 {
		return fields[0], fields[1:]
	}
	if env := strings.Fields(os.Getenv("BROWSER")); len(env) > 0 {
		return env[0], env[1:]
	}

	switch {
	case isWSL():
		return "wslview", nil
	case runtime.GOOS == "darwin":
		return "open", nil
	case runtime.GOOS == "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler"}
	default:
		return "xdg-open", nil
	}
}

func isWSL() bool {
	_, err := os.Stat("/proc/sys/fs/binfmt_misc/WSLInterop")
	return err == nil
}

// CopyToClipboard copies text to the system clipboard.
func CopyToClipboard(text string) error {
	if clipboard.Unsupported {
		return errors.New("clipboard not supported on this system")
	}
	return clipboard.WriteAll(text)
}
