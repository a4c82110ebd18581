// SPDX-License-Identifier: MPL-2.0

package runner

import (
	"context"

	"github.com/crossbox/crossbox/internal/container"
)

func (r *Runner) runLocal(ctx context.Context, b Build) (int, error) {
	args, err := r.localArgs(ctx, b)
	if err != nil {
		return 1, err
	}
	return r.engine.Status(ctx, args...)
}

// localArgs builds the single `run --rm` invocation of a local build.
func (r *Runner) localArgs(ctx context.Context, b Build) ([]string, error) {
	l := b.Layout
	args := []string{"run", "--userns", "host"}

	env, err := r.envArgs(b)
	if err != nil {
		return nil, err
	}
	args = append(args, env...)

	volumes, mountVolumes, err := r.extraVolumes(ctx, b)
	if err != nil {
		return nil, err
	}
	for _, v := range volumes {
		args = append(args, v.localArgs()...)
	}

	args = append(args, "--rm")

	seccomp, err := r.seccompArgs(ctx, b.Target, b.Cwd)
	if err != nil {
		return nil, err
	}
	args = append(args, seccomp...)
	args = append(args, r.userArgs()...)

	project := container.VolumeMount{HostPath: l.HostRoot(), ContainerPath: "/project", SELinux: container.SELinuxLabelPrivate}
	if mountVolumes {
		project.ContainerPath = l.MountRoot()
	}
	mounts := []container.VolumeMount{
		{HostPath: l.Xargo(), ContainerPath: "/xargo", SELinux: container.SELinuxLabelPrivate},
		{HostPath: l.Cargo(), ContainerPath: "/cargo", SELinux: container.SELinuxLabelPrivate},
		// Hides host-installed binaries such as cross itself.
		{ContainerPath: "/cargo/bin"},
		project,
		{HostPath: l.Sysroot(), ContainerPath: "/rust", ReadOnly: true, SELinux: container.SELinuxLabelPrivate},
		{HostPath: l.Target(), ContainerPath: "/target", SELinux: container.SELinuxLabelPrivate},
	}
	for _, m := range mounts {
		args = append(args, m.Args()...)
	}

	wd, err := workdir(b.Metadata.WorkspaceRoot, b.Cwd, l, mountVolumes)
	if err != nil {
		return nil, err
	}
	args = append(args, "-w", wd)

	if nix := l.NixStore(); nix != "" {
		args = append(args, container.VolumeMount{HostPath: nix, ContainerPath: nix, SELinux: container.SELinuxLabelPrivate}.Args()...)
	}

	args = append(args, r.tty.interactiveArgs()...)
	args = append(args, b.Image, "sh", "-c", BuildCommand(b.Xargo, b.Args))
	return args, nil
}
