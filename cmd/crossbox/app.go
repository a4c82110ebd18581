// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"io"
	"os"
	"os/exec"

	"github.com/charmbracelet/log"

	"github.com/crossbox/crossbox/internal/config"
	"github.com/crossbox/crossbox/internal/container"
	"github.com/crossbox/crossbox/internal/mount"
	"github.com/crossbox/crossbox/internal/project"
	"github.com/crossbox/crossbox/internal/target"
	"github.com/crossbox/crossbox/internal/toolchain"
)

const (
	// RemoteEnvVar selects remote mode when set to a true value.
	RemoteEnvVar = "CROSS_REMOTE"
	// InContainerEnvVar enables mount translation when crossbox itself runs
	// inside a container.
	InContainerEnvVar = "CROSS_CONTAINER_IN_CONTAINER"
)

type (
	// App wires CLI services and shared dependencies. All Cobra handlers
	// receive an App and build engines, loggers and workspaces through it.
	App struct {
		Config config.Provider
		stdout io.Writer
		stderr io.Writer
		getenv func(string) string
		getwd  func() (string, error)

		execCommand   func(ctx context.Context, name string, arg ...string) *exec.Cmd
		engineOptions []container.Option

		flags globalFlags
	}

	// Dependencies defines the injection points for building an App. Nil
	// fields are replaced with production defaults by NewApp.
	Dependencies struct {
		Config config.Provider
		Stdout io.Writer
		Stderr io.Writer
		Getenv func(string) string
		Getwd  func() (string, error)
		// ExecCommand runs cargo and rustc.
		ExecCommand func(ctx context.Context, name string, arg ...string) *exec.Cmd
		// EngineOptions are applied after the flag-derived engine options.
		EngineOptions []container.Option
	}

	globalFlags struct {
		verbose bool
		dryRun  bool
		engine  string
	}

	// workspaceOptions are the per-command inputs of loadWorkspace.
	workspaceOptions struct {
		Target     string
		ConfigPath string
		// InContainer translates paths through the mount table of the
		// container crossbox runs in.
		InContainer bool
	}

	// workspace is everything known about the project before a build.
	workspace struct {
		Cwd      string
		Metadata *project.Metadata
		Config   *config.Config
		Target   target.Triple
		Rustc    *toolchain.Rustc
		Version  toolchain.VersionMeta
		Dirs     *mount.Directories
	}
)

// NewApp creates an App with defaults for omitted dependencies.
func NewApp(deps Dependencies) *App {
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	if deps.Getenv == nil {
		deps.Getenv = os.Getenv
	}
	if deps.Getwd == nil {
		deps.Getwd = os.Getwd
	}
	if deps.ExecCommand == nil {
		deps.ExecCommand = exec.CommandContext
	}

	return &App{
		Config:        deps.Config,
		stdout:        deps.Stdout,
		stderr:        deps.Stderr,
		getenv:        deps.Getenv,
		getwd:         deps.Getwd,
		execCommand:   deps.ExecCommand,
		engineOptions: deps.EngineOptions,
	}
}

// logger builds the CLI logger. --verbose lowers the level to debug.
func (a *App) logger() *log.Logger {
	l := log.NewWithOptions(a.stderr, log.Options{Prefix: "crossbox"})
	if a.flags.verbose {
		l.SetLevel(log.DebugLevel)
	}
	return l
}

// newEngine detects the container engine, honoring --engine.
func (a *App) newEngine(ctx context.Context, remote bool) (*container.Engine, error) {
	opts := []container.Option{
		container.WithLogger(a.logger()),
		container.WithGetenv(a.getenv),
		container.WithStdout(a.stdout),
		container.WithVerbose(a.flags.verbose),
		container.WithDryRun(a.flags.dryRun),
	}
	if a.flags.engine != "" {
		opts = append(opts, container.WithBinary(a.flags.engine))
	}
	opts = append(opts, a.engineOptions...)
	return container.Detect(ctx, remote, opts...)
}

// isRemote reports whether remote mode was requested by flag or environment.
func (a *App) isRemote(flag bool) bool {
	return flag || config.EnvBool(a.getenv(RemoteEnvVar))
}

// loadWorkspace reads the Cargo project and Cross.toml, queries the host
// toolchain, and resolves the build directories. The target defaults to the
// configured default target, then the host triple.
func (a *App) loadWorkspace(ctx context.Context, e *container.Engine, opts workspaceOptions) (*workspace, error) {
	cwd, err := a.getwd()
	if err != nil {
		return nil, err
	}

	rustc := toolchain.New(toolchain.WithExecCommand(a.execCommand))
	sysroot, err := rustc.Sysroot(ctx)
	if err != nil {
		return nil, err
	}
	version, err := rustc.Version(ctx)
	if err != nil {
		return nil, err
	}

	// Cross.toml lives at the workspace root, so without --target the root
	// is read first to find the configured default target.
	triple := target.Triple(opts.Target)
	var cfg *config.Config
	if triple == "" {
		members, err := project.Load(ctx, project.LoadOptions{Dir: cwd, ExecCommand: a.execCommand})
		if err != nil {
			return nil, err
		}
		if cfg, err = a.loadConfig(ctx, opts.ConfigPath, members.WorkspaceRoot); err != nil {
			return nil, err
		}
		triple = cfg.DefaultTarget()
	}
	if triple == "" {
		triple = target.Triple(version.Host)
	}
	if err := triple.Validate(); err != nil {
		return nil, err
	}

	// Path dependencies outside the workspace are only reported with the
	// dependency graph.
	meta, err := project.Load(ctx, project.LoadOptions{
		Dir:            cwd,
		Dependencies:   true,
		FilterPlatform: triple.String(),
		ExecCommand:    a.execCommand,
	})
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		if cfg, err = a.loadConfig(ctx, opts.ConfigPath, meta.WorkspaceRoot); err != nil {
			return nil, err
		}
	}

	// The engine's own mount table only describes local containers.
	var inspector *mount.Inspector
	if opts.InContainer && !e.IsRemote() {
		inspector = mount.NewInspector(e, a.getenv)
	}
	dirs, err := mount.NewDirectories(ctx, mount.DirectoriesInput{
		WorkspaceRoot: meta.WorkspaceRoot,
		TargetDir:     meta.TargetDirectory,
		Cwd:           cwd,
		Sysroot:       sysroot,
		Getenv:        a.getenv,
	}, inspector)
	if err != nil {
		return nil, err
	}

	return &workspace{
		Cwd:      cwd,
		Metadata: meta,
		Config:   cfg,
		Target:   triple,
		Rustc:    rustc,
		Version:  version,
		Dirs:     dirs,
	}, nil
}

func (a *App) loadConfig(ctx context.Context, path, workspaceRoot string) (*config.Config, error) {
	cfg, err := a.Config.Load(ctx, config.LoadOptions{
		Path:          path,
		WorkspaceRoot: workspaceRoot,
		Getenv:        a.getenv,
	})
	if err != nil {
		return nil, err
	}
	if cfg.Path() != "" {
		a.logger().Debug("loaded configuration", "path", cfg.Path())
	}
	return cfg, nil
}
