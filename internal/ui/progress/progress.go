// Package progress provides spinners and progress bars drawn on stderr
// while forgectl waits on gh, glab or git.
//
// Indicators only draw when stderr is a terminal and output was not
// silenced; otherwise every method is a no-op.
package progress

import (
	"fmt"
	"io"
	"os"
	"sync/atomic"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/mattn/go-isatty"
)

// stopTimeout bounds how long Stop waits for the program to exit.
const stopTimeout = 500 * time.Millisecond

var quiet atomic.Bool

// SetQuiet disables all indicators (--quiet, --json).
func SetQuiet(q bool) {
	quiet.Store(q)
}

// Enabled reports whether indicators are drawn.
func Enabled() bool {
	if quiet.Load() {
		return false
	}
	fd := os.Stderr.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// runner owns the bubbletea program behind an indicator.
type runner struct {
	out       io.Writer
	program   *tea.Program
	done      chan struct{}
	isRunning bool
}

// start launches model unless already running. Callers hold their own lock.
func (r *runner) start(model tea.Model) {
	if r.isRunning {
		return
	}
	r.done = make(chan struct{})
	// stderr keeps stdout clean for piping
	r.program = tea.NewProgram(model,
		tea.WithoutSignalHandler(),
		tea.WithOutput(r.out))
	r.isRunning = true

	go func(p *tea.Program, done chan struct{}) {
		_, _ = p.Run()
		close(done)
	}(r.program, r.done)
}

// stop quits the program, waits for it and clears the line.
func (r *runner) stop() {
	if r.program != nil {
		r.program.Quit()
	}
	select {
	case <-r.done:
	case <-time.After(stopTimeout):
	}
	fmt.Fprint(r.out, "\r\033[K")
}
