// SPDX-License-Identifier: MPL-2.0

package runner

import (
	"context"

	"github.com/crossbox/crossbox/internal/container"
	"github.com/crossbox/crossbox/internal/issue"
	"github.com/crossbox/crossbox/internal/project"
	"github.com/crossbox/crossbox/internal/target"
)

// FillImage runs the placeholder container that fills a persistent volume.
const FillImage = "ubuntu:16.04"

// VolumeSpec identifies the persistent volume of a project, target and
// toolchain.
type VolumeSpec struct {
	Target   target.Triple
	Metadata *project.Metadata
	Layout   Layout
	CommitID string
	// CopyRegistry stages the whole cargo home, registry included.
	CopyRegistry bool
}

// PersistentVolume returns the name of the persistent volume for v.
func PersistentVolume(v VolumeSpec) (string, error) {
	name, err := Identity(v.Metadata, v.Target, v.Layout.Sysroot(), v.CommitID)
	if err != nil {
		return "", err
	}
	return container.KeepVolume(name).Name(), nil
}

// CreatePersistentVolume creates the persistent volume for v and stages the
// toolchain into it. Remote builds of the same project then skip toolchain
// staging. The volume must not exist yet. It returns the volume name.
func (r *Runner) CreatePersistentVolume(ctx context.Context, v VolumeSpec) (string, error) {
	name, err := Identity(v.Metadata, v.Target, v.Layout.Sysroot(), v.CommitID)
	if err != nil {
		return "", err
	}
	volume := container.KeepVolume(name)

	exists, err := r.engine.VolumeExists(ctx, volume.Name())
	if err != nil {
		return "", issue.WrapWithContext(err, "inspect volume", volume.Name())
	}
	if exists {
		return "", preconditionError("create persistent volume", volume.Name(), "volume already exists",
			"remove it first with `crossbox volumes remove-persistent`")
	}
	if err := r.engine.CreateVolume(ctx, volume.Name()); err != nil {
		return "", issue.WrapWithContext(err, "create volume", volume.Name())
	}
	if err := container.Reconcile(ctx, r.engine, name, volume); err != nil {
		return "", err
	}

	args := []string{"run", "--name", name, "-v", volume.Name() + ":" + MountPrefix, "-d"}
	args = append(args, r.tty.detachedArgs()...)
	args = append(args, FillImage, "sh", "-c", "sleep infinity")
	if err := r.engine.StartRetry(ctx, args...); err != nil {
		return "", issue.WrapWithContext(err, "start container", name)
	}
	lease := container.NewLease(r.engine, name, volume)
	defer lease.Release(ctx)

	s := &stager{engine: r.engine, container: name}
	if err := r.stageToolchain(ctx, s, v.Layout, v.Target, r.copyRegistry(v.CopyRegistry)); err != nil {
		return "", err
	}
	return volume.Name(), nil
}

// RemovePersistentVolume removes the persistent volume for v, which must
// exist.
func (r *Runner) RemovePersistentVolume(ctx context.Context, v VolumeSpec) error {
	name, err := PersistentVolume(v)
	if err != nil {
		return err
	}
	exists, err := r.engine.VolumeExists(ctx, name)
	if err != nil {
		return issue.WrapWithContext(err, "inspect volume", name)
	}
	if !exists {
		return preconditionError("remove persistent volume", name, "volume does not exist",
			"list volumes with `crossbox volumes list`")
	}
	if err := r.engine.RemoveVolume(ctx, name); err != nil {
		return issue.WrapWithContext(err, "remove volume", name)
	}
	return nil
}

func preconditionError(op, resource, reason, suggestion string) error {
	return issue.NewErrorContext().
		WithOperation(op).
		WithResource(resource).
		WithSuggestion(suggestion).
		WithIssue(issue.PreconditionFailedId).
		Wrap(&preconditionErr{reason: reason}).
		BuildError()
}

type preconditionErr struct{ reason string }

func (e *preconditionErr) Error() string { return e.reason }

func (e *preconditionErr) Unwrap() error { return container.ErrPreconditionViolated }
