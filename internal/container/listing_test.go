// SPDX-License-Identifier: MPL-2.0

package container

import (
	"context"
	"slices"
	"testing"

	"github.com/crossbox/crossbox/internal/testutil"
)

func TestEngine_ListVolumes(t *testing.T) {
	t.Parallel()

	rec := testutil.NewMockCommandRecorder()
	rec.On("volume list", testutil.MockResponse{Stdout: "cross-b\n\ncross-a-keep\n"})
	e := newTestEngine(t, rec, KindDocker, false)

	got, err := e.ListVolumes(context.Background())
	if err != nil {
		t.Fatalf("ListVolumes() error: %v", err)
	}
	if want := []string{"cross-a-keep", "cross-b"}; !slices.Equal(got, want) {
		t.Errorf("ListVolumes() = %v, want %v", got, want)
	}
	if call := rec.Calls()[0]; call != "volume list --format {{.Name}} --filter name=^cross-" {
		t.Errorf("call = %q", call)
	}
}

func TestRemoveVolumesArgs(t *testing.T) {
	t.Parallel()

	got := RemoveVolumesArgs([]string{"cross-a", "cross-b"}, true)
	want := []string{"volume", "rm", "--force", "cross-a", "cross-b"}
	if !slices.Equal(got, want) {
		t.Errorf("RemoveVolumesArgs() = %v, want %v", got, want)
	}
}

func TestEngine_ListContainers(t *testing.T) {
	t.Parallel()

	rec := testutil.NewMockCommandRecorder()
	rec.On("ps", testutil.MockResponse{Stdout: "cross-two: Running\ncross-one: exited\n"})
	e := newTestEngine(t, rec, KindPodman, false)

	got, err := e.ListContainers(context.Background())
	if err != nil {
		t.Fatalf("ListContainers() error: %v", err)
	}
	want := []ContainerSummary{{Name: "cross-one", State: StateExited}, {Name: "cross-two", State: StateRunning}}
	if !slices.Equal(got, want) {
		t.Errorf("ListContainers() = %v, want %v", got, want)
	}
}

func TestRemoveContainersCommands(t *testing.T) {
	t.Parallel()

	containers := []ContainerSummary{
		{Name: "cross-a", State: StateExited},
		{Name: "cross-b", State: StateRunning},
	}
	got := RemoveContainersCommands(containers, false)
	if len(got) != 2 {
		t.Fatalf("RemoveContainersCommands() = %v, want 2 commands", got)
	}
	if !slices.Equal(got[0], []string{"stop", "cross-b"}) {
		t.Errorf("first command = %v", got[0])
	}
	if !slices.Equal(got[1], []string{"rm", "cross-b", "cross-a"}) {
		t.Errorf("second command = %v", got[1])
	}
	if RemoveContainersCommands(nil, true) != nil {
		t.Error("no containers should yield no commands")
	}
}
