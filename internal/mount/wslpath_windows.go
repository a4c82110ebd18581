// SPDX-License-Identifier: MPL-2.0

//go:build windows

package mount

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/crossbox/crossbox/internal/issue"
)

// linuxPath converts a Windows path to the Linux path WSL exposes it at,
// since bind mounts on Windows hosts take Linux syntax.
func linuxPath(ctx context.Context, p string) (string, error) {
	wsl, err := exec.LookPath("wsl.exe")
	if err != nil {
		return "", issue.NewErrorContext().
			WithOperation("convert path for mounting").
			WithResource(p).
			WithSuggestion("is WSL installed on the host?").
			Wrap(err).
			BuildError()
	}
	out, err := exec.CommandContext(ctx, wsl, "-e", "wslpath", "-a", p).Output()
	if err != nil {
		return "", fmt.Errorf("could not get linux compatible path for `%s`: %w", p, err)
	}
	return strings.TrimSpace(string(out)), nil
}
