// SPDX-License-Identifier: MPL-2.0

package runner

import "errors"

var (
	// ErrSymlinkCollision is returned when the staged tree cannot be linked
	// into place because a regular file occupies a canonical path.
	ErrSymlinkCollision = errors.New("unexpected file at a mount path")

	// ErrReservedEnvVar is returned when the configuration forwards
	// CROSS_RUNNER, which the runner sets itself.
	ErrReservedEnvVar = errors.New("CROSS_RUNNER environment variable name is reserved and cannot be pass through")

	// ErrNoPackages is returned when the project metadata lists no package
	// to name the remote container after.
	ErrNoPackages = errors.New("project has no packages")
)
