// SPDX-License-Identifier: MPL-2.0

package container

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// SELinuxLabelNone means no SELinux label is applied to volume mounts.
	SELinuxLabelNone SELinuxLabel = ""
	// SELinuxLabelPrivate relabels the mount for a single container.
	SELinuxLabelPrivate SELinuxLabel = "Z"
)

// ErrInvalidVolumeMount is the sentinel error wrapped by InvalidVolumeMountError.
var ErrInvalidVolumeMount = errors.New("invalid volume mount")

type (
	// SELinuxLabel represents an SELinux volume labeling option.
	SELinuxLabel string

	// VolumeMount is one -v argument. An empty HostPath denotes an anonymous
	// volume at ContainerPath, used to shadow a directory with an empty one.
	VolumeMount struct {
		HostPath      string
		ContainerPath string
		ReadOnly      bool
		SELinux       SELinuxLabel
	}

	// InvalidVolumeMountError is returned when a VolumeMount has no
	// container path or a relative one.
	InvalidVolumeMountError struct {
		Value VolumeMount
	}
)

func (e *InvalidVolumeMountError) Error() string {
	return fmt.Sprintf("invalid volume mount %q: container path must be absolute", e.Value.String())
}

// Unwrap returns ErrInvalidVolumeMount for errors.Is() compatibility.
func (e *InvalidVolumeMountError) Unwrap() error { return ErrInvalidVolumeMount }

// Validate returns an error if the container path is not absolute.
func (v VolumeMount) Validate() error {
	if !strings.HasPrefix(v.ContainerPath, "/") {
		return &InvalidVolumeMountError{Value: v}
	}
	return nil
}

// String formats the mount for the -v flag: "host:container[:Z[,ro]]".
// The label comes first so "Z,ro" reads the same on Docker and Podman.
func (v VolumeMount) String() string {
	if v.HostPath == "" {
		return v.ContainerPath
	}

	var result strings.Builder
	result.WriteString(v.HostPath)
	result.WriteString(":")
	result.WriteString(v.ContainerPath)

	var options []string
	if v.SELinux != SELinuxLabelNone {
		options = append(options, string(v.SELinux))
	}
	if v.ReadOnly {
		options = append(options, "ro")
	}
	if len(options) > 0 {
		result.WriteString(":")
		result.WriteString(strings.Join(options, ","))
	}

	return result.String()
}

// Args returns the mount as a "-v" flag pair.
func (v VolumeMount) Args() []string {
	return []string{"-v", v.String()}
}
