// SPDX-License-Identifier: MPL-2.0

package runner

import (
	"context"
	"os"
	"os/user"

	"github.com/charmbracelet/log"

	"github.com/crossbox/crossbox/internal/container"
	"github.com/crossbox/crossbox/internal/project"
	"github.com/crossbox/crossbox/internal/target"
	"github.com/crossbox/crossbox/internal/toolchain"
)

// Environment variables read by the runners.
const (
	UIDEnvVar           = "CROSS_CONTAINER_UID"
	GIDEnvVar           = "CROSS_CONTAINER_GID"
	ContainerOptsEnvVar = "CROSS_CONTAINER_OPTS"
	DockerOptsEnvVar    = "DOCKER_OPTS"
	CopyCacheEnvVar     = "CROSS_REMOTE_COPY_CACHE"
	CopyRegistryEnvVar  = "CROSS_REMOTE_COPY_REGISTRY"
)

type (
	// Layout is the set of host paths a build mounts or stages. It is
	// satisfied by *mount.Directories.
	Layout interface {
		Cargo() string
		Xargo() string
		Target() string
		NixStore() string
		HostRoot() string
		MountRoot() string
		MountCwd() string
		Sysroot() string
	}

	// Config is the per-target configuration a run reads. It is satisfied
	// by *config.Config.
	Config interface {
		Runner(t target.Triple) string
		EnvPassthrough(t target.Triple) []string
		EnvVolumes(t target.Triple) []string
	}

	// Toolchain answers the target-libdir query the remote runner needs to
	// locate the host's own standard library. It is satisfied by
	// *toolchain.Rustc.
	Toolchain interface {
		TargetLibdir(ctx context.Context, sysroot string) (string, error)
	}

	// Build describes one build tool invocation.
	Build struct {
		Target target.Triple
		// Image is the resolved image reference.
		Image string
		// Args are passed to the build tool unchanged.
		Args []string
		// Xargo selects xargo instead of cargo.
		Xargo    bool
		Metadata *project.Metadata
		Layout   Layout
		Config   Config
		// Cwd is the invoking process's working directory.
		Cwd string
		// CommitID identifies the host toolchain, see toolchain.VersionMeta.
		CommitID string
	}

	// Runner executes builds on one engine.
	Runner struct {
		engine      *container.Engine
		logger      *log.Logger
		getenv      func(string) string
		currentUser func() (*user.User, error)
		getuid      func() int
		getgid      func() int
		toolchain   Toolchain
		tty         TTY
	}

	// Option configures a Runner.
	Option func(*Runner)
)

// WithGetenv replaces os.Getenv.
func WithGetenv(fn func(string) string) Option {
	return func(r *Runner) {
		r.getenv = fn
	}
}

// WithLogger overrides the engine's logger.
func WithLogger(l *log.Logger) Option {
	return func(r *Runner) {
		r.logger = l
	}
}

// WithToolchain sets the toolchain queried during remote staging.
func WithToolchain(tc Toolchain) Option {
	return func(r *Runner) {
		r.toolchain = tc
	}
}

// WithTTY overrides terminal detection.
func WithTTY(tty TTY) Option {
	return func(r *Runner) {
		r.tty = tty
	}
}

// WithUser replaces the current user lookup and the process uid and gid.
func WithUser(lookup func() (*user.User, error), uid, gid int) Option {
	return func(r *Runner) {
		r.currentUser = lookup
		r.getuid = func() int { return uid }
		r.getgid = func() int { return gid }
	}
}

// New returns a Runner for e.
func New(e *container.Engine, opts ...Option) *Runner {
	r := &Runner{
		engine:      e,
		logger:      e.Logger(),
		getenv:      os.Getenv,
		currentUser: user.Current,
		getuid:      os.Getuid,
		getgid:      os.Getgid,
		toolchain:   toolchain.New(),
		tty:         DetectTTY(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes the build and returns the build tool's exit status. The
// remote strategy is used when the engine is remote.
func (r *Runner) Run(ctx context.Context, b Build) (int, error) {
	if r.engine.IsRemote() {
		return r.runRemote(ctx, b)
	}
	return r.runLocal(ctx, b)
}
