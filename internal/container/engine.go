// SPDX-License-Identifier: MPL-2.0

package container

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/crossbox/crossbox/internal/issue"
)

const (
	// EngineEnvVar overrides which engine binary is used.
	EngineEnvVar = "CROSS_CONTAINER_ENGINE"

	docker = "docker"
	podman = "podman"
)

const (
	// KindOther is an engine whose dialect could not be identified.
	KindOther Kind = iota
	// KindDocker is the Docker CLI.
	KindDocker
	// KindPodman is the Podman CLI talking to a local service.
	KindPodman
	// KindPodmanRemote is the podman-remote client.
	KindPodmanRemote
)

type (
	// Kind is the dialect of an engine binary.
	Kind int

	// ExecCommandFunc is the function signature for creating exec.Cmd.
	// This allows injection of mock implementations for testing.
	ExecCommandFunc func(ctx context.Context, name string, arg ...string) *exec.Cmd

	// LookPathFunc resolves an executable name to a path.
	LookPathFunc func(file string) (string, error)

	// Option configures an Engine at construction time.
	Option func(*Engine)

	// Engine is an immutable handle to a detected container engine binary.
	Engine struct {
		kind   Kind
		path   string
		remote bool

		verbose bool
		dryRun  bool

		binary      string // explicit override, resolved before the environment
		execCommand ExecCommandFunc
		lookPath    LookPathFunc
		getenv      func(string) string
		logger      *log.Logger
		stdout      io.Writer
	}
)

// String returns the dialect name.
func (k Kind) String() string {
	switch k {
	case KindDocker:
		return "docker"
	case KindPodman:
		return "podman"
	case KindPodmanRemote:
		return "podman-remote"
	case KindOther:
		return "other"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ClassifyHelp identifies the engine dialect from its `--help` output.
// Binaries are often aliases or shims (podman installed as docker), so the
// output decides rather than the executable name.
func ClassifyHelp(help string) Kind {
	out := strings.ToLower(help)
	switch {
	case strings.Contains(out, "podman-remote"):
		return KindPodmanRemote
	case strings.Contains(out, "podman"):
		return KindPodman
	case strings.Contains(out, "docker") && !strings.Contains(out, "emulate"):
		return KindDocker
	default:
		return KindOther
	}
}

// WithBinary sets an explicit engine executable, taking precedence over
// CROSS_CONTAINER_ENGINE and the PATH search.
func WithBinary(name string) Option {
	return func(e *Engine) {
		e.binary = name
	}
}

// WithExecCommand sets a custom exec command function for testing.
func WithExecCommand(fn ExecCommandFunc) Option {
	return func(e *Engine) {
		e.execCommand = fn
	}
}

// WithLookPath sets a custom executable resolver for testing.
func WithLookPath(fn LookPathFunc) Option {
	return func(e *Engine) {
		e.lookPath = fn
	}
}

// WithGetenv sets the environment lookup used for CROSS_CONTAINER_ENGINE.
func WithGetenv(fn func(string) string) Option {
	return func(e *Engine) {
		e.getenv = fn
	}
}

// WithLogger sets the logger used for warnings and echoed commands.
func WithLogger(l *log.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithStdout sets where listing commands print their results.
func WithStdout(w io.Writer) Option {
	return func(e *Engine) {
		e.stdout = w
	}
}

// WithVerbose echoes every engine command before running it.
func WithVerbose(verbose bool) Option {
	return func(e *Engine) {
		e.verbose = verbose
	}
}

// WithDryRun echoes every engine command instead of running it.
func WithDryRun(dryRun bool) Option {
	return func(e *Engine) {
		e.dryRun = dryRun
	}
}

func newEngine(remote bool, opts []Option) *Engine {
	e := &Engine{
		remote:      remote,
		execCommand: exec.CommandContext,
		lookPath:    exec.LookPath,
		getenv:      os.Getenv,
		stdout:      os.Stdout,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = log.NewWithOptions(os.Stderr, log.Options{Prefix: "crossbox"})
	}
	return e
}

// Detect finds the engine binary and identifies its dialect.
//
// Resolution order: WithBinary, then CROSS_CONTAINER_ENGINE, then docker and
// podman on PATH. remote marks an engine whose host filesystem is not the
// local one.
func Detect(ctx context.Context, remote bool, opts ...Option) (*Engine, error) {
	e := newEngine(remote, opts)

	path, err := e.resolveBinary()
	if err != nil {
		return nil, err
	}
	return e.detect(ctx, path)
}

// New builds an Engine of a known dialect without probing the executable.
func New(kind Kind, path string, remote bool, opts ...Option) *Engine {
	e := newEngine(remote, opts)
	e.kind = kind
	e.path = path
	return e
}

func (e *Engine) resolveBinary() (string, error) {
	var candidates []string
	switch {
	case e.binary != "":
		candidates = []string{e.binary}
	case e.getenv(EngineEnvVar) != "":
		candidates = []string{e.getenv(EngineEnvVar)}
	default:
		candidates = []string{docker, podman}
	}

	for _, c := range candidates {
		if path, err := e.lookPath(c); err == nil {
			return path, nil
		}
	}

	return "", issue.NewErrorContext().
		WithOperation("detect container engine").
		WithResource(strings.Join(candidates, ", ")).
		WithSuggestion("is docker or podman installed?").
		WithSuggestion("set " + EngineEnvVar + " to the engine executable").
		WithIssue(issue.EngineNotFoundId).
		Wrap(ErrEngineNotFound).
		BuildError()
}

func (e *Engine) detect(ctx context.Context, path string) (*Engine, error) {
	cmd := e.execCommand(ctx, path, "--help")
	var out bytes.Buffer
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		// Some shims exit non-zero for --help but still print usage.
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return nil, issue.NewErrorContext().
				WithOperation("detect container engine").
				WithResource(path).
				WithIssue(issue.EngineNotFoundId).
				Wrap(fmt.Errorf("%w: %w", ErrEngineNotFound, err)).
				BuildError()
		}
	}

	e.path = path
	e.kind = ClassifyHelp(out.String())
	return e, nil
}

// Kind returns the engine dialect.
func (e *Engine) Kind() Kind { return e.kind }

// Path returns the engine executable.
func (e *Engine) Path() string { return e.path }

// IsRemote reports whether the engine's host filesystem differs from ours.
func (e *Engine) IsRemote() bool { return e.remote }

// Verbose reports whether engine commands are echoed.
func (e *Engine) Verbose() bool { return e.verbose }

// DryRun reports whether engine commands are only printed.
func (e *Engine) DryRun() bool { return e.dryRun }

// Logger returns the engine's logger.
func (e *Engine) Logger() *log.Logger { return e.logger }

// Stdout returns where listing output is written.
func (e *Engine) Stdout() io.Writer { return e.stdout }

// NeedsRemoteFlag reports whether commands must be prefixed with --remote.
func (e *Engine) NeedsRemoteFlag() bool {
	switch e.kind {
	case KindPodman:
		return e.remote
	case KindDocker, KindPodmanRemote, KindOther:
		return false
	default:
		return false
	}
}

// NeedsUserFlag reports whether containers must be started with an
// explicit --user. Podman maps the invoking user itself.
func (e *Engine) NeedsUserFlag() bool {
	switch e.kind {
	case KindDocker:
		return true
	case KindPodman, KindPodmanRemote, KindOther:
		return false
	default:
		return false
	}
}
