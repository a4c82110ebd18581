// SPDX-License-Identifier: MPL-2.0

package container

import (
	"context"
	"errors"
	"strings"
)

// IsTransientError reports whether err is an engine failure that may succeed
// on retry: generic engine errors (exit code 125) and known network,
// runtime and storage-driver races. Context cancellation is never transient.
func IsTransientError(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var execErr *ExecError
	if errors.As(err, &execErr) && execErr.ExitCode == 125 {
		return true
	}
	return hasTransientMessage(err.Error())
}

// IsTransientStartError is IsTransientError for `run --name`. Docker also
// exits 125 on a name conflict or a missing image, and a retry of a half
// created container only reports the conflict, so only the known message
// classes count.
func IsTransientStartError(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return hasTransientMessage(err.Error())
}

func hasTransientMessage(errStr string) bool {

	// Rootless Podman race conditions and OCI runtime errors.
	if strings.Contains(errStr, "ping_group_range") ||
		strings.Contains(errStr, "OCI runtime error") {
		return true
	}

	// Remote engine connections and image pulls.
	if strings.Contains(errStr, "connection reset by peer") ||
		strings.Contains(errStr, "Could not resolve host") ||
		strings.Contains(errStr, "connection timed out") ||
		strings.Contains(errStr, "connection refused") {
		return true
	}

	// Storage driver errors (overlay mount races on rootless Podman).
	if strings.Contains(errStr, "error creating overlay mount") ||
		strings.Contains(errStr, "error mounting layer") {
		return true
	}

	return false
}
