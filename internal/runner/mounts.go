// SPDX-License-Identifier: MPL-2.0

package runner

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/crossbox/crossbox/internal/container"
	"github.com/crossbox/crossbox/internal/mount"
)

// extraVolume is a path mounted at its own location in addition to the
// project: an env volume or a path dependency.
type extraVolume struct {
	// Var is the env volume name, empty for path dependencies.
	Var string
	// Host is the canonical host path.
	Host string
	// Mount is Host in bind-mount syntax.
	Mount string
}

// localArgs returns the bind mount and, for env volumes, the variable
// pointing at it.
func (v extraVolume) localArgs() []string {
	args := container.VolumeMount{HostPath: v.Host, ContainerPath: v.Mount}.Args()
	return append(args, v.envArgs()...)
}

func (v extraVolume) envArgs() []string {
	if v.Var == "" {
		return nil
	}
	return []string{"-e", v.Var + "=" + v.Mount}
}

// extraVolumes resolves the env volumes and path dependencies of b.
// mountVolumes reports whether the project must be mounted at its own
// path rather than at /project: that is the case when any extra volume
// exists or the current directory is outside the workspace.
func (r *Runner) extraVolumes(ctx context.Context, b Build) (volumes []extraVolume, mountVolumes bool, err error) {
	mountVolumes = !mount.IsAncestorOrSelf(b.Metadata.WorkspaceRoot, b.Cwd)

	for _, entry := range b.Config.EnvVolumes(b.Target) {
		key, value, hasValue, err := ValidateEnvVar(entry)
		if err != nil {
			return nil, false, err
		}
		if !hasValue {
			value = r.getenv(key)
		}
		if value == "" {
			continue
		}
		v, err := resolveVolume(ctx, value)
		if err != nil {
			return nil, false, err
		}
		v.Var = key
		volumes = append(volumes, v)
		mountVolumes = true
	}

	for _, dir := range b.Metadata.PathDependencies() {
		v, err := resolveVolume(ctx, dir)
		if err != nil {
			return nil, false, err
		}
		volumes = append(volumes, v)
		mountVolumes = true
	}
	return volumes, mountVolumes, nil
}

func resolveVolume(ctx context.Context, p string) (extraVolume, error) {
	host, err := canonicalize(p)
	if err != nil {
		return extraVolume{}, err
	}
	dst, err := mount.CanonicalMountPath(ctx, host)
	if err != nil {
		return extraVolume{}, err
	}
	return extraVolume{Host: host, Mount: dst}, nil
}

// canonicalize returns the absolute path of p with symlinks resolved. p
// must exist.
func canonicalize(p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", fmt.Errorf("could not resolve %s: %w", p, err)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", fmt.Errorf("could not resolve %s: %w", p, err)
	}
	return resolved, nil
}

// workdir returns the build's working directory inside the container.
func workdir(workspaceRoot, cwd string, l Layout, mountVolumes bool) (string, error) {
	if mountVolumes {
		return l.MountCwd(), nil
	}
	if filepath.Clean(cwd) == filepath.Clean(workspaceRoot) {
		return "/project", nil
	}
	rel, err := filepath.Rel(workspaceRoot, cwd)
	if err != nil {
		return "", fmt.Errorf("could not locate %s in %s: %w", cwd, workspaceRoot, err)
	}
	// Rebuilt component by component: the host separator may not be "/".
	parts := append([]string{"/project"}, strings.Split(rel, string(filepath.Separator))...)
	return path.Join(parts...), nil
}
