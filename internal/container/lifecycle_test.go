// SPDX-License-Identifier: MPL-2.0

package container

import (
	"context"
	"testing"

	"github.com/crossbox/crossbox/internal/testutil"
)

const testContainer = "cross-demo-aarch64-unknown-linux-gnu-abcde-01234-deadbeef"

func TestPrepare_DiscardVolume(t *testing.T) {
	t.Parallel()

	rec := testutil.NewMockCommandRecorder()
	rec.On("volume inspect", testutil.MockResponse{ExitCode: 1})
	e := newTestEngine(t, rec, KindDocker, true)

	lease, err := Prepare(context.Background(), e, testContainer)
	if err != nil {
		t.Fatalf("Prepare() error: %v", err)
	}
	if !lease.Volume().IsDiscard() || lease.Volume().Name() != testContainer {
		t.Errorf("Volume() = %v, want discard %s", lease.Volume(), testContainer)
	}
	rec.AssertCalled(t, "volume create "+testContainer)
	rec.AssertNotCalled(t, "stop")

	lease.Release(context.Background())
	rec.AssertOrder(t, "volume create", "stop "+testContainer, "rm "+testContainer, "volume rm "+testContainer)
}

func TestPrepare_KeepVolume(t *testing.T) {
	t.Parallel()

	rec := testutil.NewMockCommandRecorder()
	e := newTestEngine(t, rec, KindDocker, true)

	lease, err := Prepare(context.Background(), e, testContainer)
	if err != nil {
		t.Fatalf("Prepare() error: %v", err)
	}
	if !lease.Volume().IsKeep() || lease.Volume().Name() != testContainer+"-keep" {
		t.Errorf("Volume() = %v, want keep volume", lease.Volume())
	}

	lease.Release(context.Background())
	rec.AssertNotCalled(t, "volume create")
	rec.AssertNotCalled(t, "volume rm")
	rec.AssertOrder(t, "stop "+testContainer, "rm "+testContainer)
}

func TestPrepare_ReclaimsStaleState(t *testing.T) {
	t.Parallel()

	rec := testutil.NewMockCommandRecorder()
	rec.On("ps", testutil.MockResponse{Stdout: "running\n"})
	rec.On("volume inspect "+testContainer+"-keep", testutil.MockResponse{ExitCode: 1})
	e := newTestEngine(t, rec, KindDocker, true)

	if _, err := Prepare(context.Background(), e, testContainer); err != nil {
		t.Fatalf("Prepare() error: %v", err)
	}
	rec.AssertOrder(t,
		"volume inspect "+testContainer+"-keep",
		"ps",
		"stop "+testContainer,
		"rm "+testContainer,
		"volume inspect "+testContainer,
		"volume rm "+testContainer,
		"volume create "+testContainer,
	)
}

func TestPrepare_ReconcileFailureIsFatal(t *testing.T) {
	t.Parallel()

	rec := testutil.NewMockCommandRecorder()
	rec.On("ps", testutil.MockResponse{Stdout: "exited\n"})
	rec.On("rm", testutil.MockResponse{ExitCode: 1, Stderr: "device busy"})
	e := newTestEngine(t, rec, KindDocker, true)

	if _, err := Prepare(context.Background(), e, testContainer); err == nil {
		t.Fatal("Prepare() should fail when the stale container cannot be removed")
	}
	rec.AssertNotCalled(t, "volume create")
}

func TestPrepare_UnknownState(t *testing.T) {
	t.Parallel()

	rec := testutil.NewMockCommandRecorder()
	rec.On("ps", testutil.MockResponse{Stdout: "zombie\n"})
	e := newTestEngine(t, rec, KindDocker, true)

	if _, err := Prepare(context.Background(), e, testContainer); err == nil {
		t.Fatal("Prepare() should fail on an unknown container state")
	}
}

func TestLease_ReleaseSwallowsErrors(t *testing.T) {
	t.Parallel()

	rec := testutil.NewMockCommandRecorder()
	rec.On("volume inspect", testutil.MockResponse{ExitCode: 1})
	e := newTestEngine(t, rec, KindDocker, true)

	lease, err := Prepare(context.Background(), e, testContainer)
	if err != nil {
		t.Fatalf("Prepare() error: %v", err)
	}

	rec.On("stop", testutil.MockResponse{ExitCode: 1})
	rec.On("rm", testutil.MockResponse{ExitCode: 1})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	lease.Release(ctx)

	// the volume is still removed after the container steps fail, even
	// with a cancelled context
	rec.AssertCalled(t, "volume rm "+testContainer)
}
