// SPDX-License-Identifier: MPL-2.0

package container

import "context"

const (
	volumeDiscard volumeKind = iota
	volumeKeep
)

// KeepSuffix is appended to a container name to form its persistent volume.
const KeepSuffix = "-keep"

type (
	volumeKind int

	// VolumeID names the staging volume of a remote build. A Keep volume is
	// created and removed by the user and survives every run; a Discard
	// volume lives for a single run.
	VolumeID struct {
		kind volumeKind
		name string
	}
)

// KeepVolume returns the persistent volume identity for a container.
func KeepVolume(container string) VolumeID {
	return VolumeID{kind: volumeKeep, name: container + KeepSuffix}
}

// DiscardVolume returns the ephemeral volume identity for a container.
func DiscardVolume(container string) VolumeID {
	return VolumeID{kind: volumeDiscard, name: container}
}

// Name returns the engine volume name.
func (v VolumeID) Name() string { return v.name }

// IsKeep reports whether the volume is persistent.
func (v VolumeID) IsKeep() bool { return v.kind == volumeKeep }

// IsDiscard reports whether the volume is ephemeral.
func (v VolumeID) IsDiscard() bool { return v.kind == volumeDiscard }

func (v VolumeID) String() string { return v.name }

// DiscoverVolume picks the persistent volume for container if one exists,
// else an ephemeral one named after the container.
func DiscoverVolume(ctx context.Context, e *Engine, container string) (VolumeID, error) {
	keep := KeepVolume(container)
	exists, err := e.VolumeExists(ctx, keep.Name())
	if err != nil {
		return VolumeID{}, err
	}
	if exists {
		return keep, nil
	}
	return DiscardVolume(container), nil
}

// VolumeExists reports whether the named volume exists.
func (e *Engine) VolumeExists(ctx context.Context, name string) (bool, error) {
	return e.Succeeds(ctx, "volume", "inspect", name)
}

// CreateVolume creates the named volume.
func (e *Engine) CreateVolume(ctx context.Context, name string) error {
	return e.Quiet(ctx, "volume", "create", name)
}

// RemoveVolume removes the named volume.
func (e *Engine) RemoveVolume(ctx context.Context, name string) error {
	return e.Quiet(ctx, "volume", "rm", name)
}
