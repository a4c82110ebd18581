// SPDX-License-Identifier: MPL-2.0

package container

import (
	"context"
	"strings"
)

const (
	StateDoesNotExist ContainerState = iota
	StateCreated
	StateRunning
	StatePaused
	StateRestarting
	StateDead
	StateExited
)

// ContainerState is the lifecycle state reported by `ps --format {{.State}}`.
type ContainerState int

// ParseContainerState maps the engine's state string to a ContainerState.
// An empty string means the container does not exist.
func ParseContainerState(s string) (ContainerState, error) {
	switch s {
	case "created":
		return StateCreated, nil
	case "running":
		return StateRunning, nil
	case "paused":
		return StatePaused, nil
	case "restarting":
		return StateRestarting, nil
	case "dead":
		return StateDead, nil
	case "exited":
		return StateExited, nil
	case "":
		return StateDoesNotExist, nil
	default:
		return StateDoesNotExist, &UnknownContainerStateError{Value: s}
	}
}

// IsStopped reports whether the container is not running any process.
func (s ContainerState) IsStopped() bool {
	return s == StateExited || s == StateDoesNotExist
}

// Exists reports whether the engine knows about the container.
func (s ContainerState) Exists() bool {
	return s != StateDoesNotExist
}

func (s ContainerState) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateRunning:
		return "running"
	case StatePaused:
		return "paused"
	case StateRestarting:
		return "restarting"
	case StateDead:
		return "dead"
	case StateExited:
		return "exited"
	case StateDoesNotExist:
		return "does-not-exist"
	default:
		return "unknown"
	}
}

// ContainerState queries the state of the named container.
func (e *Engine) ContainerState(ctx context.Context, name string) (ContainerState, error) {
	out, err := e.Output(ctx, "ps", "-a", "--filter", "name=^"+name+"$", "--format", "{{.State}}")
	if err != nil {
		return StateDoesNotExist, err
	}
	return ParseContainerState(strings.ToLower(strings.TrimSpace(out)))
}

// StopContainer stops the named container.
func (e *Engine) StopContainer(ctx context.Context, name string) error {
	return e.Quiet(ctx, "stop", name)
}

// RemoveContainer removes the named container.
func (e *Engine) RemoveContainer(ctx context.Context, name string) error {
	return e.Quiet(ctx, "rm", name)
}
