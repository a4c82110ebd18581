// SPDX-License-Identifier: MPL-2.0

// Package container drives a docker-compatible container engine binary.
//
// Detect resolves the engine executable (explicit override, the
// CROSS_CONTAINER_ENGINE variable, then docker and podman on PATH) and
// classifies its dialect from the `--help` output. Every engine command is
// built and executed through the returned *Engine, which applies the
// `--remote` prefix for remote Podman and honors verbose and dry-run modes.
//
// The lifecycle helpers (DiscoverVolume, Reconcile, Prepare and Lease)
// manage the container and volume pair a remote build works in. A Lease
// always releases the container before its volume, and never removes a
// persistent (Keep) volume.
package container
