// SPDX-License-Identifier: MPL-2.0

package container

import (
	"context"

	"github.com/crossbox/crossbox/internal/issue"
)

// Lease is the container and volume pair of one remote build. Release must
// be deferred right after Prepare succeeds.
type Lease struct {
	engine    *Engine
	container string
	volume    VolumeID
}

// Reconcile clears state left behind by an interrupted earlier run: a
// running container is stopped, an existing container is removed, and a
// leftover ephemeral volume is removed. Any failure is fatal because the
// names are about to be reused.
func Reconcile(ctx context.Context, e *Engine, container string, volume VolumeID) error {
	state, err := e.ContainerState(ctx, container)
	if err != nil {
		return issue.WrapWithContext(err, "inspect container", container)
	}

	if !state.IsStopped() {
		e.logger.Warnf("container %s was running.", container)
		if err := e.StopContainer(ctx, container); err != nil {
			return issue.WrapWithContext(err, "stop stale container", container)
		}
	}
	if state.Exists() {
		e.logger.Warnf("container %s was exited.", container)
		if err := e.RemoveContainer(ctx, container); err != nil {
			return issue.WrapWithContext(err, "remove stale container", container)
		}
	}

	if volume.IsDiscard() {
		exists, err := e.VolumeExists(ctx, volume.Name())
		if err != nil {
			return issue.WrapWithContext(err, "inspect volume", volume.Name())
		}
		if exists {
			e.logger.Warnf("temporary volume %s existed.", volume.Name())
			if err := e.RemoveVolume(ctx, volume.Name()); err != nil {
				return issue.WrapWithContext(err, "remove stale volume", volume.Name())
			}
		}
	}
	return nil
}

// Prepare discovers the volume identity for container, reconciles stale
// state and creates the volume if it is ephemeral.
func Prepare(ctx context.Context, e *Engine, container string) (*Lease, error) {
	volume, err := DiscoverVolume(ctx, e, container)
	if err != nil {
		return nil, issue.WrapWithContext(err, "inspect volume", KeepVolume(container).Name())
	}
	if err := Reconcile(ctx, e, container, volume); err != nil {
		return nil, err
	}
	if volume.IsDiscard() {
		if err := e.CreateVolume(ctx, volume.Name()); err != nil {
			return nil, issue.WrapWithContext(err, "create volume", volume.Name())
		}
	}
	return NewLease(e, container, volume), nil
}

// NewLease takes ownership of an already started container and its volume.
func NewLease(e *Engine, container string, volume VolumeID) *Lease {
	return &Lease{engine: e, container: container, volume: volume}
}

// Container returns the leased container name.
func (l *Lease) Container() string { return l.container }

// Volume returns the leased volume identity.
func (l *Lease) Volume() VolumeID { return l.volume }

// Release stops and removes the container, then removes the volume if it is
// ephemeral. Failures are logged at debug level and never returned, so the
// caller's own error is preserved. Release ignores cancellation of ctx.
func (l *Lease) Release(ctx context.Context) {
	ctx = context.WithoutCancel(ctx)

	if err := l.engine.StopContainer(ctx, l.container); err != nil {
		l.engine.logger.Debug("release: stop container", "container", l.container, "err", err)
	}
	if err := l.engine.RemoveContainer(ctx, l.container); err != nil {
		l.engine.logger.Debug("release: remove container", "container", l.container, "err", err)
	}
	if l.volume.IsDiscard() {
		if err := l.engine.RemoveVolume(ctx, l.volume.Name()); err != nil {
			l.engine.logger.Debug("release: remove volume", "volume", l.volume.Name(), "err", err)
		}
	}
}
