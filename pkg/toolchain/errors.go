package toolchain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrCompilerUnavailable is returned when an operation that requires the
// compiler provider runs while the compiler handle is unset or absent.
// Callers must run Preload and check availability first.
var ErrCompilerUnavailable = errors.New("compiler provider is not available")

// FatalKind identifies which stage produced a fatal error.
type FatalKind int

// Fatal error kinds.
const (
	FatalConfig FatalKind = iota + 1
	FatalCompile
)

func (k FatalKind) String() string {
	switch k {
	case FatalConfig:
		return "configuration"
	case FatalCompile:
		return "compilation"
	default:
		return "unknown"
	}
}

// FatalError is an unrecoverable build failure. Its diagnostics have already
// been reported through the sink; the top-level command terminates the
// process when it receives one.
type FatalError struct {
	Kind        FatalKind
	Path        string
	Diagnostics []Diagnostic
	Err         error
}

func (e *FatalError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s failed", e.Kind)
	if e.Path != "" {
		fmt.Fprintf(&sb, " for %s", e.Path)
	}
	switch {
	case e.Err != nil:
		fmt.Fprintf(&sb, ": %v", e.Err)
	case len(e.Diagnostics) > 0:
		fmt.Fprintf(&sb, ": %d diagnostic(s)", len(e.Diagnostics))
	}
	return sb.String()
}

func (e *FatalError) Unwrap() error {
	return e.Err
}

// IsFatal reports whether err is or wraps a *FatalError.
func IsFatal(err error) bool {
	var fe *FatalError
	return errors.As(err, &fe)
}

// UnknownProviderError is returned when a provider name is not registered.
type UnknownProviderError struct {
	Kind      string
	Name      string
	Available []string
}

func (e *UnknownProviderError) Error() string {
	return fmt.Sprintf("unknown %s provider %q\nAvailable providers: %v\nHint: Check the %s setting in tsbridge.yaml", e.Kind, e.Name, e.Available, e.Kind)
}
