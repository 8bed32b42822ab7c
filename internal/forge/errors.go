package forge

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

var (
	// ErrUnsupportedPlatform is returned by the factory for unknown platform types.
	ErrUnsupportedPlatform = errors.New("unsupported platform type")

	// ErrPlatformNotDetected is returned when a project's remote does not
	// point at GitHub or GitLab.
	ErrPlatformNotDetected = errors.New("could not detect git platform")

	// ErrNotAuthenticated is returned when the CLI has no session for the host.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrNoRepository is returned by release operations when neither the
	// project's remote nor the platform names a repository.
	ErrNoRepository = errors.New("no repository")
)

// Error is returned by adapter operations. It names the platform and the
// operation and wraps the underlying cause.
type Error struct {
	Platform PlatformType
	Op       string
	Err      error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s failed", e.Platform, e.Op)
	}
	return fmt.Sprintf("%s: %s: %v", e.Platform, e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func opError(t PlatformType, op string, err error) error {
	return &Error{Platform: t, Op: op, Err: err}
}

// IsAdapterError reports whether err came from an adapter, and which platform.
func IsAdapterError(err error) (PlatformType, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Platform, true
	}
	return "", false
}
