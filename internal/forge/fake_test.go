package forge

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"sync"

	"github.com/raphi011/forgectl/internal/cmd"
)

// fakeRunner records commands and answers them from a handler.
type fakeRunner struct {
	mu      sync.Mutex
	calls   []cmd.Command
	handler func(c cmd.Command) ([]byte, error)
	stream  func(c cmd.Command, onOutput func([]byte)) error
	missing map[string]bool // binaries LookPath reports as absent
}

var _ cmd.Runner = (*fakeRunner)(nil)

func newFakeRunner(handler func(c cmd.Command) ([]byte, error)) *fakeRunner {
	return &fakeRunner{handler: handler}
}

func (f *fakeRunner) LookPath(name string) (string, error) {
	if f.missing[name] {
		return "", exec.ErrNotFound
	}
	return "/usr/bin/" + name, nil
}

func (f *fakeRunner) Output(_ context.Context, c cmd.Command) ([]byte, error) {
	f.mu.Lock()
	f.calls = append(f.calls, c)
	f.mu.Unlock()
	if f.handler == nil {
		return nil, errors.New("unexpected command: " + c.Name + " " + strings.Join(c.Args, " "))
	}
	return f.handler(c)
}

func (f *fakeRunner) Stream(_ context.Context, c cmd.Command, onOutput func([]byte)) error {
	f.mu.Lock()
	f.calls = append(f.calls, c)
	f.mu.Unlock()
	if f.stream == nil {
		return errors.New("unexpected stream: " + c.Name)
	}
	return f.stream(c, onOutput)
}

// count returns how many recorded commands ran name with args containing sub.
func (f *fakeRunner) count(name, sub string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c.Name == name && strings.Contains(strings.Join(c.Args, " "), sub) {
			n++
		}
	}
	return n
}

// find returns the first recorded command whose args contain sub.
func (f *fakeRunner) find(name, sub string) (cmd.Command, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.calls {
		if c.Name == name && strings.Contains(strings.Join(c.Args, " "), sub) {
			return c, true
		}
	}
	return cmd.Command{}, false
}

func argsOf(c cmd.Command) string {
	return strings.Join(c.Args, " ")
}

// gitRemote answers "git remote get-url" with url for every path.
func gitRemote(url string) func(c cmd.Command) ([]byte, error) {
	return func(c cmd.Command) ([]byte, error) {
		if c.Name == "git" && strings.Contains(argsOf(c), "remote get-url") {
			return []byte(url + "\n"), nil
		}
		return nil, errors.New("unexpected command: " + c.Name + " " + argsOf(c))
	}
}

// openerSpy records browser opens and optionally fails them.
type openerSpy struct {
	mu     sync.Mutex
	opened []string
	err    error
}

func (o *openerSpy) Open(url string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.opened = append(o.opened, url)
	return o.err
}
