package cmd

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/raphi011/forgectl/internal/log"
)

// Command describes a single external process invocation.
type Command struct {
	Dir   string    // working directory (empty = current)
	Env   []string  // extra KEY=VALUE pairs appended to the parent environment
	Stdin io.Reader // optional stdin
	Name  string
	Args  []string
}

// Runner executes external commands. The forge and detection layers only
// talk to processes through a Runner so tests can substitute a fake.
type Runner interface {
	// LookPath reports where name is installed.
	LookPath(name string) (string, error)

	// Output runs the command and returns stdout. Failures carry stderr.
	Output(ctx context.Context, c Command) ([]byte, error)

	// Stream runs the command, handing every chunk of combined
	// stdout/stderr to onOutput as it arrives, and returns once it exits.
	Stream(ctx context.Context, c Command, onOutput func([]byte)) error
}

// ExitError reports a command that ran but exited non-zero.
type ExitError struct {
	Name   string
	Code   int
	Stderr string
}

func (e *ExitError) Error() string {
	if e.Stderr != "" {
		return e.Stderr
	}
	return fmt.Sprintf("%s exited with status %d", e.Name, e.Code)
}

// ExitCode extracts the exit status from err.
// Returns 0 for nil and -1 when the process never reported a status.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return -1
}

// Exec is the Runner backed by os/exec.
type Exec struct{}

var _ Runner = Exec{}

// LookPath wraps exec.LookPath.
func (Exec) LookPath(name string) (string, error) {
	return exec.LookPath(name)
}

// Output executes c and returns stdout, with stderr in the error if it fails.
func (Exec) Output(ctx context.Context, c Command) ([]byte, error) {
	command := build(ctx, c)

	var stdout, stderr bytes.Buffer
	command.Stdout = &stdout
	command.Stderr = &stderr

	done := log.FromContext(ctx).Command(c.Dir, c.Env, c.Name, c.Args...)
	start := time.Now()
	err := command.Run()
	done(time.Since(start))

	if err != nil {
		return nil, wrapRunError(ctx, c.Name, err, stderr.String())
	}
	return stdout.Bytes(), nil
}

// Stream executes c and forwards combined output to onOutput chunk by chunk.
func (Exec) Stream(ctx context.Context, c Command, onOutput func([]byte)) error {
	command := build(ctx, c)

	w := &chunkWriter{fn: onOutput}
	// Same pointer for both: os/exec serializes writes to it.
	command.Stdout = w
	command.Stderr = w

	done := log.FromContext(ctx).Command(c.Dir, c.Env, c.Name, c.Args...)
	start := time.Now()
	err := command.Run()
	done(time.Since(start))

	if err != nil {
		return wrapRunError(ctx, c.Name, err, "")
	}
	return nil
}

func build(ctx context.Context, c Command) *exec.Cmd {
	command := exec.CommandContext(ctx, c.Name, c.Args...)
	command.Dir = c.Dir
	command.Stdin = c.Stdin
	if len(c.Env) > 0 {
		command.Env = append(os.Environ(), c.Env...)
	}
	return command
}

func wrapRunError(ctx context.Context, name string, err error, stderr string) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &ExitError{
			Name:   name,
			Code:   exitErr.ExitCode(),
			Stderr: strings.TrimSpace(stderr),
		}
	}
	return errors.Wrapf(err, "run %s", name)
}

type chunkWriter struct {
	mu sync.Mutex
	fn func([]byte)
}

func (w *chunkWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.fn != nil {
		// p is reused by the caller after Write returns.
		w.fn(bytes.Clone(p))
	}
	return len(p), nil
}
