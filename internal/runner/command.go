// SPDX-License-Identifier: MPL-2.0

package runner

import (
	"slices"

	"github.com/crossbox/crossbox/internal/container"
)

// BuildCommand renders the build tool invocation as a single shell command
// with /rust/bin ahead of the image's PATH.
func BuildCommand(xargo bool, args []string) string {
	tool := "cargo"
	if xargo {
		tool = "xargo"
	}
	return "PATH=/rust/bin:$PATH " + container.ShellJoin(append([]string{tool}, args...))
}

// BuildStdArgs adds -Zbuild-std to cargo args, ahead of any `--` that
// separates the arguments of the built binary.
func BuildStdArgs(args []string) []string {
	i := slices.Index(args, "--")
	if i < 0 {
		i = len(args)
	}
	return slices.Concat(args[:i], []string{"-Zbuild-std"}, args[i:])
}
