// SPDX-License-Identifier: MPL-2.0

package container

import (
	"io"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/crossbox/crossbox/internal/testutil"
)

func TestHelperProcess(t *testing.T) { testutil.HelperProcess() }

// newTestEngine returns an engine of the given kind whose commands are
// served by rec.
func newTestEngine(t *testing.T, rec *testutil.MockCommandRecorder, kind Kind, remote bool, opts ...Option) *Engine {
	t.Helper()
	base := []Option{
		WithExecCommand(rec.ContextCommandFunc(t)),
		WithLogger(log.New(io.Discard)),
		WithStdout(io.Discard),
	}
	return New(kind, "docker", remote, append(base, opts...)...)
}
