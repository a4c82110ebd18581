// SPDX-License-Identifier: MPL-2.0

package container

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/crossbox/crossbox/internal/testutil"
)

func TestRetryWithBackoff_RetriesThenSucceeds(t *testing.T) {
	t.Parallel()
	calls := 0
	err := RetryWithBackoff(context.Background(), 5, time.Millisecond, func(attempt int) (bool, error) {
		calls++
		if attempt < 2 {
			return true, errors.New("transient")
		}
		return false, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
}

func TestRetryWithBackoff_PermanentErrorStops(t *testing.T) {
	t.Parallel()
	calls := 0
	permanent := errors.New("permanent")
	err := RetryWithBackoff(context.Background(), 5, time.Millisecond, func(int) (bool, error) {
		calls++
		return false, permanent
	})
	if !errors.Is(err, permanent) {
		t.Fatalf("expected permanent error, got: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected 1 call, got %d", calls)
	}
}

func TestRetryWithBackoff_ExhaustsRetries(t *testing.T) {
	t.Parallel()
	calls := 0
	err := RetryWithBackoff(context.Background(), 3, time.Millisecond, func(int) (bool, error) {
		calls++
		return true, errors.New("always transient")
	})
	if err == nil || err.Error() != "always transient" {
		t.Fatalf("expected last error, got: %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
}

func TestRetryWithBackoff_ContextCancelledBetweenRetries(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := RetryWithBackoff(ctx, 5, time.Millisecond, func(attempt int) (bool, error) {
		calls++
		if attempt == 0 {
			cancel()
			return true, errors.New("transient")
		}
		t.Fatal("should not reach second attempt")
		return false, nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected 1 call, got %d", calls)
	}
}

func TestEngine_QuietRetry_NonTransientNotRetried(t *testing.T) {
	t.Parallel()

	rec := testutil.NewMockCommandRecorder()
	rec.On("cp", testutil.MockResponse{ExitCode: 1, Stderr: "no such file"})
	e := newTestEngine(t, rec, KindDocker, true)

	if err := e.QuietRetry(context.Background(), "cp", "/src", "c:/dst"); err == nil {
		t.Fatal("QuietRetry() should fail")
	}
	if n := len(rec.Calls()); n != 1 {
		t.Errorf("QuietRetry() ran %d times, want 1", n)
	}
}

func TestEngine_StartRetry_ConflictNotRetried(t *testing.T) {
	t.Parallel()

	rec := testutil.NewMockCommandRecorder()
	rec.On("run", testutil.MockResponse{ExitCode: 125, Stderr: `Conflict. The container name "/cross-x" is already in use`})
	e := newTestEngine(t, rec, KindDocker, true)

	err := e.StartRetry(context.Background(), "run", "--name", "cross-x", "-d", "img")
	if err == nil || !strings.Contains(err.Error(), "Conflict") {
		t.Fatalf("StartRetry() error = %v, want the conflict", err)
	}
	if n := len(rec.Calls()); n != 1 {
		t.Errorf("StartRetry() ran %d times, want 1", n)
	}
}

func TestEngine_StartRetry_RetriesRuntimeRace(t *testing.T) {
	t.Parallel()

	rec := testutil.NewMockCommandRecorder()
	rec.On("run", testutil.MockResponse{ExitCode: 125, Stderr: "OCI runtime error: unable to start container"})
	e := newTestEngine(t, rec, KindPodman, true)

	if err := e.StartRetry(context.Background(), "run", "--name", "cross-x", "-d", "img"); err == nil {
		t.Fatal("StartRetry() should fail")
	}
	if n := len(rec.Calls()); n != defaultRetryAttempts {
		t.Errorf("StartRetry() ran %d times, want %d", n, defaultRetryAttempts)
	}
}
