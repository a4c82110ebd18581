// SPDX-License-Identifier: MPL-2.0

// Package mount resolves the host paths a build mounts into its container.
//
// When crossbox itself runs inside a container, a path such as
// /home/user/project is meaningless to the engine daemon, which only sees
// the true host filesystem. A Finder built from the current container's own
// mount table rewrites such paths by longest destination prefix. Directories
// collects every path a runner needs, already translated.
package mount
