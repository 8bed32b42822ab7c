package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/colorprofile"
	"github.com/cockroachdb/errors"

	"github.com/raphi011/forgectl/internal/ui/styles"
)

// exitError ends the process with code after the command already
// reported the problem itself (e.g. "auth status" when logged out).
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

func exitCode(err error) int {
	var e *exitError
	if errors.As(err, &e) {
		return e.code
	}
	return 1
}

// printError writes err and its hints. Stack traces are never shown.
func printError(w io.Writer, err error) {
	var e *exitError
	if errors.As(err, &e) {
		return
	}

	cw := colorprofile.NewWriter(w, os.Environ())
	fmt.Fprintf(cw, "%s %s\n", styles.ErrorStyle.Render("Error:"), err.Error())

	if hints := errors.FlattenHints(err); hints != "" {
		for _, hint := range strings.Split(hints, "\n--\n") {
			fmt.Fprintf(cw, "%s %s\n", styles.MutedStyle.Render("hint:"), hint)
		}
	}
}
