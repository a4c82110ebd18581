// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"slices"
	"strings"
	"sync"
	"testing"
)

type (
	// MockCommandRecorder captures arguments passed to exec.Command for verification.
	// It uses the TestHelperProcess pattern to simulate command execution: the
	// returned *exec.Cmd re-runs the test binary, which prints the configured
	// output and exits with the configured code.
	//
	// The test package must declare:
	//
	//	func TestHelperProcess(t *testing.T) { testutil.HelperProcess() }
	MockCommandRecorder struct {
		mu sync.Mutex
		// Invocations records each call to the mock exec.Command
		Invocations []MockInvocation
		// Default is the response used when no entry in Responses matches.
		Default MockResponse
		// Responses maps a space-joined argument prefix (e.g. "volume inspect")
		// to the response for invocations starting with it. The longest
		// matching prefix wins.
		Responses map[string]MockResponse
	}

	// MockResponse is the scripted behavior of one invocation.
	MockResponse struct {
		ExitCode int
		Stdout   string
		Stderr   string
	}

	// MockInvocation represents a single invocation of exec.Command.
	MockInvocation struct {
		// Name is the command name (e.g., "docker", "podman")
		Name string
		// Args are the arguments passed to the command
		Args []string
	}
)

// NewMockCommandRecorder creates a new recorder with default settings (success, no output).
func NewMockCommandRecorder() *MockCommandRecorder {
	return &MockCommandRecorder{Responses: make(map[string]MockResponse)}
}

// On scripts the response for invocations whose arguments start with prefix.
func (m *MockCommandRecorder) On(prefix string, resp MockResponse) *MockCommandRecorder {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Responses[prefix] = resp
	return m
}

// ContextCommandFunc returns a function that can replace exec.CommandContext.
func (m *MockCommandRecorder) ContextCommandFunc(t testing.TB) func(ctx context.Context, name string, args ...string) *exec.Cmd {
	t.Helper()
	return func(_ context.Context, name string, args ...string) *exec.Cmd {
		resp := m.record(name, args)

		cs := []string{"-test.run=TestHelperProcess", "--", name}
		cs = append(cs, args...)
		//nolint:gosec // TestHelperProcess is a test-only pattern
		cmd := exec.Command(os.Args[0], cs...) //nolint:noctx // exec.Command used intentionally for test helper
		cmd.Env = []string{
			"GO_WANT_HELPER_PROCESS=1",
			fmt.Sprintf("GO_HELPER_EXIT_CODE=%d", resp.ExitCode),
			fmt.Sprintf("GO_HELPER_STDOUT=%s", resp.Stdout),
			fmt.Sprintf("GO_HELPER_STDERR=%s", resp.Stderr),
		}
		return cmd
	}
}

func (m *MockCommandRecorder) record(name string, args []string) MockResponse {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Invocations = append(m.Invocations, MockInvocation{Name: name, Args: slices.Clone(args)})

	joined := strings.Join(args, " ")
	best, bestLen := m.Default, -1
	for prefix, resp := range m.Responses {
		if joined != prefix && !strings.HasPrefix(joined, prefix+" ") {
			continue
		}
		if len(prefix) > bestLen {
			best, bestLen = resp, len(prefix)
		}
	}
	return best
}

// Calls returns every recorded invocation as a space-joined argument string.
func (m *MockCommandRecorder) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	calls := make([]string, 0, len(m.Invocations))
	for _, inv := range m.Invocations {
		calls = append(calls, strings.Join(inv.Args, " "))
	}
	return calls
}

// LastArgs returns the arguments from the most recent invocation.
func (m *MockCommandRecorder) LastArgs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Invocations) == 0 {
		return nil
	}
	return m.Invocations[len(m.Invocations)-1].Args
}

// Index returns the position of the first invocation starting with prefix, or -1.
func (m *MockCommandRecorder) Index(prefix string) int {
	for i, call := range m.Calls() {
		if call == prefix || strings.HasPrefix(call, prefix+" ") {
			return i
		}
	}
	return -1
}

// AssertCalled fails the test if no invocation starts with prefix.
func (m *MockCommandRecorder) AssertCalled(t testing.TB, prefix string) {
	t.Helper()
	if m.Index(prefix) < 0 {
		t.Errorf("expected a call starting with %q, got:\n  %s", prefix, strings.Join(m.Calls(), "\n  "))
	}
}

// AssertNotCalled fails the test if any invocation starts with prefix.
func (m *MockCommandRecorder) AssertNotCalled(t testing.TB, prefix string) {
	t.Helper()
	if i := m.Index(prefix); i >= 0 {
		t.Errorf("unexpected call %q", m.Calls()[i])
	}
}

// AssertOrder fails the test unless the first calls matching each prefix
// appear in the given order.
func (m *MockCommandRecorder) AssertOrder(t testing.TB, prefixes ...string) {
	t.Helper()
	last := -1
	for _, p := range prefixes {
		i := m.Index(p)
		if i < 0 {
			t.Errorf("expected a call starting with %q", p)
			return
		}
		if i <= last {
			t.Errorf("call %q happened out of order, calls:\n  %s", p, strings.Join(m.Calls(), "\n  "))
			return
		}
		last = i
	}
}

// HelperProcess is the body of the TestHelperProcess test function. It reads
// its configuration from the environment, writes the scripted output and
// exits. It returns immediately when not running as a helper.
func HelperProcess() {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}

	if stdout := os.Getenv("GO_HELPER_STDOUT"); stdout != "" {
		fmt.Fprint(os.Stdout, stdout)
	}
	if stderr := os.Getenv("GO_HELPER_STDERR"); stderr != "" {
		fmt.Fprint(os.Stderr, stderr)
	}

	exitCode := 0
	if code := os.Getenv("GO_HELPER_EXIT_CODE"); code != "" {
		fmt.Sscanf(code, "%d", &exitCode)
	}

	os.Exit(exitCode)
}
