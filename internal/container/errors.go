// SPDX-License-Identifier: MPL-2.0

package container

import (
	"errors"
	"fmt"
)

var (
	// ErrEngineNotFound is returned when no engine binary can be resolved.
	ErrEngineNotFound = errors.New("no container engine found")

	// ErrUnknownContainerState is the sentinel error wrapped by UnknownContainerStateError.
	ErrUnknownContainerState = errors.New("unknown container state")

	// ErrPreconditionViolated is returned when a persistent volume exists
	// where it must not, or is missing where it must exist.
	ErrPreconditionViolated = errors.New("precondition violated")

	// ErrExecutionFailed is the sentinel error wrapped by ExecError.
	ErrExecutionFailed = errors.New("engine command failed")
)

type (
	// ExecError is returned when an engine command exits non-zero.
	ExecError struct {
		Command  string
		ExitCode int
		Stderr   string
	}

	// UnknownContainerStateError is returned for a state string outside the
	// engine's fixed enumeration.
	UnknownContainerStateError struct {
		Value string
	}
)

func (e *ExecError) Error() string {
	msg := fmt.Sprintf("`%s` failed with exit code: %d", e.Command, e.ExitCode)
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}
	return msg
}

// Unwrap returns ErrExecutionFailed for errors.Is() compatibility.
func (e *ExecError) Unwrap() error { return ErrExecutionFailed }

func (e *UnknownContainerStateError) Error() string {
	return fmt.Sprintf("unknown container state: got %s", e.Value)
}

// Unwrap returns ErrUnknownContainerState for errors.Is() compatibility.
func (e *UnknownContainerStateError) Unwrap() error { return ErrUnknownContainerState }

// ExitCodeOf returns the exit code carried by an *ExecError in err's chain.
func ExitCodeOf(err error) (int, bool) {
	var execErr *ExecError
	if errors.As(err, &execErr) {
		return execErr.ExitCode, true
	}
	return 0, false
}
