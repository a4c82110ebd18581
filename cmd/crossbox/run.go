// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/crossbox/crossbox/internal/config"
	"github.com/crossbox/crossbox/internal/image"
	"github.com/crossbox/crossbox/internal/runner"
)

type runFlags struct {
	target         string
	configPath     string
	remote         bool
	xargo          bool
	dockerInDocker bool
}

// newRunCommand creates the `crossbox run` command.
func newRunCommand(app *App) *cobra.Command {
	var flags runFlags

	runCmd := &cobra.Command{
		Use:   "run [flags] -- <cargo args>",
		Short: "Run cargo inside the target's container",
		Long: `Run cargo inside the container image of the target.

Arguments after -- are passed to cargo (or xargo) unchanged. The exit status
of crossbox is the exit status of the build tool.`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := runBuild(cmd.Context(), app, flags, args)
			if err != nil {
				return err
			}
			if code != 0 {
				// The build tool has already reported its failure.
				cmd.SilenceErrors = true
				return &ExitError{Code: code}
			}
			return nil
		},
	}

	runCmd.Flags().StringVar(&flags.target, "target", "", "target triple (default: build.default-target, then the host)")
	runCmd.Flags().StringVar(&flags.configPath, "config", "", "path to Cross.toml (default: $CROSS_CONFIG, then the workspace root)")
	runCmd.Flags().BoolVar(&flags.remote, "remote", false, "copy data into the container instead of bind mounting ($"+RemoteEnvVar+")")
	runCmd.Flags().BoolVar(&flags.xargo, "xargo", false, "build with xargo instead of cargo")
	runCmd.Flags().BoolVar(&flags.dockerInDocker, "docker-in-docker", false,
		"translate paths through the mounts of the container crossbox runs in ($"+InContainerEnvVar+")")

	return runCmd
}

func runBuild(ctx context.Context, app *App, flags runFlags, args []string) (int, error) {
	e, err := app.newEngine(ctx, app.isRemote(flags.remote))
	if err != nil {
		return 0, err
	}

	ws, err := app.loadWorkspace(ctx, e, workspaceOptions{
		Target:      flags.target,
		ConfigPath:  flags.configPath,
		InContainer: flags.dockerInDocker || config.EnvBool(app.getenv(InContainerEnvVar)),
	})
	if err != nil {
		return 0, err
	}

	ref, err := image.NewResolver().Resolve(ws.Target, ws.Config.Image(ws.Target))
	if err != nil {
		return 0, err
	}

	// build-std replaces xargo: cargo builds the standard library itself.
	buildStd := ws.Config.BuildStd(ws.Target)
	if buildStd {
		args = runner.BuildStdArgs(args)
	}

	r := runner.New(e,
		runner.WithGetenv(app.getenv),
		runner.WithToolchain(ws.Rustc),
	)
	return r.Run(ctx, runner.Build{
		Target:   ws.Target,
		Image:    ref,
		Args:     args,
		Xargo:    !buildStd && (flags.xargo || ws.Config.Xargo(ws.Target)),
		Metadata: ws.Metadata,
		Layout:   ws.Dirs,
		Config:   ws.Config,
		Cwd:      ws.Cwd,
		CommitID: ws.Version.CommitID(),
	})
}
