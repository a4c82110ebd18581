// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for crossbox.
//
// The root command wires global flags into an App, which builds the container
// engine, loads the Cargo project and Cross.toml, and hands builds to the
// runner package. Housekeeping commands for volumes, containers and images
// live beside `run`.
package cmd
