// SPDX-License-Identifier: MPL-2.0

package container

import (
	"context"
	"fmt"
	"slices"
	"strings"
)

// ResourcePrefix starts the name of every container and volume crossbox creates.
const ResourcePrefix = "cross-"

// ContainerSummary is one line of the container listing.
type ContainerSummary struct {
	Name  string
	State ContainerState
}

func splitLines(out string) []string {
	var lines []string
	for line := range strings.Lines(out) {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	slices.Sort(lines)
	return lines
}

// ListVolumes returns the names of crossbox volumes, sorted.
func (e *Engine) ListVolumes(ctx context.Context) ([]string, error) {
	out, err := e.Output(ctx, "volume", "list", "--format", "{{.Name}}", "--filter", "name=^"+ResourcePrefix)
	if err != nil {
		return nil, err
	}
	return splitLines(out), nil
}

// RemoveVolumesArgs returns the engine arguments removing the given volumes.
func RemoveVolumesArgs(volumes []string, force bool) []string {
	args := []string{"volume", "rm"}
	if force {
		args = append(args, "--force")
	}
	return append(args, volumes...)
}

// PruneVolumes removes every unused volume.
func (e *Engine) PruneVolumes(ctx context.Context) error {
	return e.Run(ctx, "volume", "prune", "--force")
}

// ListContainers returns crossbox containers with their state, sorted by name.
func (e *Engine) ListContainers(ctx context.Context) ([]ContainerSummary, error) {
	out, err := e.Output(ctx, "ps", "-a", "--format", "{{.Names}}: {{.State}}", "--filter", "name=^"+ResourcePrefix)
	if err != nil {
		return nil, err
	}

	var summaries []ContainerSummary
	for _, line := range splitLines(out) {
		name, state, ok := strings.Cut(line, ":")
		if !ok {
			return nil, fmt.Errorf("unexpected container listing line %q", line)
		}
		parsed, err := ParseContainerState(strings.ToLower(strings.TrimSpace(state)))
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, ContainerSummary{Name: strings.TrimSpace(name), State: parsed})
	}
	return summaries, nil
}

// RemoveContainersCommands returns the engine invocations removing the given
// containers: running ones are stopped first, then all are removed.
func RemoveContainersCommands(containers []ContainerSummary, force bool) [][]string {
	var running, stopped []string
	for _, c := range containers {
		if c.State.IsStopped() {
			stopped = append(stopped, c.Name)
		} else {
			running = append(running, c.Name)
		}
	}

	var commands [][]string
	if len(running) > 0 {
		commands = append(commands, append([]string{"stop"}, running...))
	}
	if len(running)+len(stopped) > 0 {
		rm := []string{"rm"}
		if force {
			rm = append(rm, "--force")
		}
		rm = append(rm, running...)
		rm = append(rm, stopped...)
		commands = append(commands, rm)
	}
	return commands
}
