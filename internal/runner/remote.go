// SPDX-License-Identifier: MPL-2.0

package runner

import (
	"context"
	"path"
	"path/filepath"
	"strings"

	"github.com/crossbox/crossbox/internal/config"
	"github.com/crossbox/crossbox/internal/container"
	"github.com/crossbox/crossbox/internal/issue"
	"github.com/crossbox/crossbox/internal/mount"
	"github.com/crossbox/crossbox/internal/target"
)

// staged pairs a host tree with its copy inside the data volume.
type staged struct {
	host string
	dst  string
}

// runRemote runs b on an engine that cannot bind-mount host paths:
//
//  1. name the container and volume, clearing leftovers of earlier runs
//  2. start a placeholder container on the volume
//  3. copy the toolchain, caches, project and extra volumes in
//  4. link the copies to their canonical paths
//  5. exec the build
//  6. copy the output directory back
//
// The container, and the volume unless it is persistent, are removed
// afterwards whatever the outcome.
func (r *Runner) runRemote(ctx context.Context, b Build) (int, error) {
	l := b.Layout
	name, err := Identity(b.Metadata, b.Target, l.Sysroot(), b.CommitID)
	if err != nil {
		return 1, err
	}
	lease, err := container.Prepare(ctx, r.engine, name)
	if err != nil {
		return 1, err
	}
	defer lease.Release(ctx)

	volumes, mountVolumes, err := r.startRemote(ctx, b, lease)
	if err != nil {
		return 1, err
	}

	s := &stager{engine: r.engine, container: name, copyCache: config.EnvBool(r.getenv(CopyCacheEnvVar))}
	if lease.Volume().IsDiscard() {
		if err := r.stageToolchain(ctx, s, l, b.Target, r.copyRegistry(false)); err != nil {
			return 1, err
		}
	}

	mountRoot := path.Join(MountPrefix, "project")
	if mountVolumes {
		mountRoot = path.Join(MountPrefix, strings.TrimPrefix(l.MountRoot(), "/"))
	}
	if err := s.copy(ctx, l.HostRoot(), mountRoot); err != nil {
		return 1, err
	}

	copied := []staged{
		{host: l.Xargo(), dst: path.Join(MountPrefix, "xargo")},
		{host: l.Cargo(), dst: path.Join(MountPrefix, "cargo")},
		{host: l.Sysroot(), dst: path.Join(MountPrefix, "rust")},
		{host: l.HostRoot(), dst: mountRoot},
	}
	var links []Symlink

	targetDir := path.Join(MountPrefix, "target")
	hostTarget := l.Target()
	if resolved, err := canonicalize(hostTarget); err == nil {
		hostTarget = resolved
	}
	if rel, ok := relativeTo(l.HostRoot(), hostTarget); ok {
		targetDir = path.Join(mountRoot, rel)
		links = append(links, Symlink{Source: targetDir, Target: "/target"})
	} else {
		if s.copyCache {
			err = s.copy(ctx, l.Target(), targetDir)
		} else {
			err = s.mkdir(ctx, targetDir)
		}
		if err != nil {
			return 1, err
		}
		copied = append(copied, staged{host: l.Target(), dst: targetDir})
	}

	for _, v := range volumes {
		if link, ok := linkInto(copied, v); ok {
			links = append(links, link)
			continue
		}
		dst := path.Join(MountPrefix, strings.TrimPrefix(v.Mount, "/"))
		if err := s.copy(ctx, v.Host, dst); err != nil {
			return 1, err
		}
	}

	if err := r.linkStaged(ctx, name, links); err != nil {
		return 1, err
	}

	wd, err := workdir(b.Metadata.WorkspaceRoot, b.Cwd, l, mountVolumes)
	if err != nil {
		return 1, err
	}
	args := append([]string{"exec"}, r.userArgs()...)
	args = append(args, "-w", wd, name, "sh", "-c", BuildCommand(b.Xargo, b.Args))
	code, runErr := r.engine.Status(ctx, args...)

	cpErr := r.engine.Run(ctx, "cp", "-a", name+":"+targetDir+"/.", l.Target())
	if runErr != nil {
		return code, runErr
	}
	if cpErr != nil {
		return code, issue.WrapWithContext(cpErr, "copy build output", l.Target())
	}
	return code, nil
}

// startRemote starts the placeholder container the build is staged into
// and returns the extra volumes to stage.
func (r *Runner) startRemote(ctx context.Context, b Build, lease *container.Lease) ([]extraVolume, bool, error) {
	args := []string{
		"run", "--userns", "host",
		"--name", lease.Container(),
		"-v", lease.Volume().Name() + ":" + MountPrefix,
	}

	env, err := r.envArgs(b)
	if err != nil {
		return nil, false, err
	}
	args = append(args, env...)

	volumes, mountVolumes, err := r.extraVolumes(ctx, b)
	if err != nil {
		return nil, false, err
	}
	for _, v := range volumes {
		args = append(args, v.envArgs()...)
	}

	seccomp, err := r.seccompArgs(ctx, b.Target, b.Cwd)
	if err != nil {
		return nil, false, err
	}
	args = append(args, seccomp...)
	args = append(args, container.VolumeMount{ContainerPath: path.Join(MountPrefix, "cargo", "bin")}.Args()...)

	if nix := b.Layout.NixStore(); nix != "" {
		volumes = append(volumes, extraVolume{Host: nix, Mount: nix})
	}

	args = append(args, "-d")
	args = append(args, r.tty.detachedArgs()...)
	args = append(args, b.Image, "sh", "-c", "sleep infinity")
	if err := r.engine.StartRetry(ctx, args...); err != nil {
		return nil, false, issue.WrapWithContext(err, "start container", lease.Container())
	}
	return volumes, mountVolumes, nil
}

// stageToolchain copies the xargo home, cargo home and sysroot into a
// fresh volume.
func (r *Runner) stageToolchain(ctx context.Context, s *stager, l Layout, t target.Triple, copyRegistry bool) error {
	if err := s.stageXargo(ctx, l.Xargo(), t); err != nil {
		return err
	}
	if err := s.stageCargo(ctx, l.Cargo(), copyRegistry); err != nil {
		return err
	}
	libdir, err := r.toolchain.TargetLibdir(ctx, l.Sysroot())
	if err != nil {
		return err
	}
	return s.stageRust(ctx, l.Sysroot(), t, libdir)
}

// copyRegistry reports whether the cargo registry is staged wholesale.
// CROSS_REMOTE_COPY_REGISTRY, when set, overrides fallback.
func (r *Runner) copyRegistry(fallback bool) bool {
	if v := r.getenv(CopyRegistryEnvVar); v != "" {
		return config.EnvBool(v)
	}
	return fallback
}

// linkInto returns the link for v when it lies inside an already staged
// tree.
func linkInto(copied []staged, v extraVolume) (Symlink, bool) {
	for _, c := range copied {
		if rel, ok := relativeTo(c.host, v.Host); ok {
			return Symlink{Source: path.Join(c.dst, rel), Target: v.Mount}, true
		}
	}
	return Symlink{}, false
}

// relativeTo returns p relative to dir in slash form, if p is inside dir.
func relativeTo(dir, p string) (string, bool) {
	if !mount.IsAncestorOrSelf(dir, p) {
		return "", false
	}
	rel, err := filepath.Rel(dir, p)
	if err != nil {
		return "", false
	}
	return filepath.ToSlash(rel), true
}
