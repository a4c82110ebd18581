// SPDX-License-Identifier: MPL-2.0

package runner

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/crossbox/crossbox/internal/container"
	"github.com/crossbox/crossbox/internal/mount"
	"github.com/crossbox/crossbox/internal/target"
)

// seccompProfile allows the personality and memory syscalls 32-bit
// emulation needs, which the engines' default profiles reject.
//
//go:embed seccomp.json
var seccompProfile []byte

// seccompArgs returns the --security-opt flag for targets that need the
// bundled profile. The profile is written under <cwd>/target/<triple> the
// first time it is needed.
func (r *Runner) seccompArgs(ctx context.Context, t target.Triple, cwd string) ([]string, error) {
	if !t.NeedsSeccomp() {
		return nil, nil
	}

	switch r.engine.Kind() {
	case container.KindDocker:
		// Docker Desktop on Windows cannot read a profile from a path.
		if runtime.GOOS == "windows" {
			return []string{"--security-opt", "seccomp=unconfined"}, nil
		}
	case container.KindPodman, container.KindPodmanRemote, container.KindOther:
	}

	p := filepath.Join(cwd, "target", t.String(), "seccomp.json")
	if err := writeSeccompProfile(p); err != nil {
		return nil, err
	}

	switch r.engine.Kind() {
	case container.KindPodman, container.KindPodmanRemote:
		// Podman on Windows expects a path inside the WSL distribution.
		var err error
		if p, err = mount.CanonicalMountPath(ctx, p); err != nil {
			return nil, err
		}
	case container.KindDocker, container.KindOther:
	}
	return []string{"--security-opt", "seccomp=" + p}, nil
}

func writeSeccompProfile(p string) error {
	if _, err := os.Stat(p); err == nil {
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to stat %s: %w", p, err)
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Dir(p), err)
	}
	if err := os.WriteFile(p, seccompProfile, 0o644); err != nil {
		return fmt.Errorf("failed to write seccomp profile: %w", err)
	}
	return nil
}
