// SPDX-License-Identifier: MPL-2.0

package container

import (
	"context"
	"errors"
	"testing"

	"github.com/crossbox/crossbox/internal/testutil"
)

func TestParseContainerState(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    ContainerState
		stopped bool
		exists  bool
	}{
		{"created", StateCreated, false, true},
		{"running", StateRunning, false, true},
		{"paused", StatePaused, false, true},
		{"restarting", StateRestarting, false, true},
		{"dead", StateDead, false, true},
		{"exited", StateExited, true, true},
		{"", StateDoesNotExist, true, false},
	}
	for _, tt := range tests {
		got, err := ParseContainerState(tt.in)
		if err != nil {
			t.Errorf("ParseContainerState(%q) error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseContainerState(%q) = %v, want %v", tt.in, got, tt.want)
		}
		if got.IsStopped() != tt.stopped {
			t.Errorf("%v.IsStopped() = %v, want %v", got, got.IsStopped(), tt.stopped)
		}
		if got.Exists() != tt.exists {
			t.Errorf("%v.Exists() = %v, want %v", got, got.Exists(), tt.exists)
		}
	}
}

func TestParseContainerState_Unknown(t *testing.T) {
	t.Parallel()

	for _, in := range []string{"Running", "removing", " running", "exited\nrunning"} {
		_, err := ParseContainerState(in)
		if !errors.Is(err, ErrUnknownContainerState) {
			t.Errorf("ParseContainerState(%q) error = %v, want ErrUnknownContainerState", in, err)
		}
	}
}

func TestEngine_ContainerState(t *testing.T) {
	t.Parallel()

	rec := testutil.NewMockCommandRecorder()
	rec.On("ps", testutil.MockResponse{Stdout: "Running\n"})
	e := newTestEngine(t, rec, KindPodman, false)

	state, err := e.ContainerState(context.Background(), "cross-demo")
	if err != nil {
		t.Fatalf("ContainerState() error: %v", err)
	}
	if state != StateRunning {
		t.Errorf("ContainerState() = %v, want running", state)
	}
	if got := rec.Calls()[0]; got != "ps -a --filter name=^cross-demo$ --format {{.State}}" {
		t.Errorf("call = %q", got)
	}
}
