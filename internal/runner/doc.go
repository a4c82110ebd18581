// SPDX-License-Identifier: MPL-2.0

// Package runner runs a cargo build inside a target image.
//
// Two strategies exist. The local runner bind-mounts the toolchain, the
// caches and the project into a single `run --rm` container. The remote
// runner targets an engine that cannot see the invoking host's filesystem:
// it starts a long-lived container on a data volume, stages every path into
// it with `cp`, recreates the mount layout with symlinks, executes the build
// and copies the output directory back.
package runner
