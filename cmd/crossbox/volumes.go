// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/crossbox/crossbox/internal/container"
	"github.com/crossbox/crossbox/internal/runner"
)

// persistentFlags are shared by `volumes create` and `volumes remove-persistent`.
type persistentFlags struct {
	target       string
	configPath   string
	copyRegistry bool
}

// newVolumesCommand creates the `crossbox volumes` command tree.
func newVolumesCommand(app *App) *cobra.Command {
	volumesCmd := &cobra.Command{
		Use:   "volumes",
		Short: "Manage the data volumes of remote builds",
		Long: `Manage the data volumes of remote builds.

Every remote build stages the project into a volume. Discard volumes are
removed with their container; persistent volumes, created with
'volumes create', keep the toolchain and registry between builds.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	volumesCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List crossbox volumes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return listVolumes(cmd.Context(), app)
		},
	})

	var force, execute bool
	removeCmd := &cobra.Command{
		Use:   "remove",
		Short: "Remove all crossbox volumes",
		Long: `Remove all crossbox volumes.

Without --execute the removal command is printed but not run.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return removeVolumes(cmd.Context(), app, force, execute)
		},
	}
	removeCmd.Flags().BoolVarP(&force, "force", "f", false, "force removal of volumes in use")
	removeCmd.Flags().BoolVarP(&execute, "execute", "x", false, "remove the volumes instead of printing the command")
	volumesCmd.AddCommand(removeCmd)

	volumesCmd.AddCommand(&cobra.Command{
		Use:   "prune",
		Short: "Remove unused volumes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := app.newEngine(cmd.Context(), app.isRemote(false))
			if err != nil {
				return err
			}
			return e.PruneVolumes(cmd.Context())
		},
	})

	var createFlags persistentFlags
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create the persistent volume of the current project",
		Long: `Create the persistent volume of the current project and stage the host
toolchain and cargo home into it. Remote builds then reuse it instead of
copying the toolchain every time.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return createPersistentVolume(cmd.Context(), app, createFlags)
		},
	}
	addPersistentFlags(createCmd, &createFlags)
	createCmd.Flags().BoolVar(&createFlags.copyRegistry, "copy-registry", false,
		"copy the whole cargo home instead of its binaries only ($"+runner.CopyRegistryEnvVar+")")
	volumesCmd.AddCommand(createCmd)

	var removePersistent persistentFlags
	removePersistentCmd := &cobra.Command{
		Use:   "remove-persistent",
		Short: "Remove the persistent volume of the current project",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return removePersistentVolume(cmd.Context(), app, removePersistent)
		},
	}
	addPersistentFlags(removePersistentCmd, &removePersistent)
	volumesCmd.AddCommand(removePersistentCmd)

	return volumesCmd
}

func addPersistentFlags(cmd *cobra.Command, flags *persistentFlags) {
	cmd.Flags().StringVar(&flags.target, "target", "", "target triple (default: build.default-target, then the host)")
	cmd.Flags().StringVar(&flags.configPath, "config", "", "path to Cross.toml")
}

func listVolumes(ctx context.Context, app *App) error {
	e, err := app.newEngine(ctx, app.isRemote(false))
	if err != nil {
		return err
	}
	volumes, err := e.ListVolumes(ctx)
	if err != nil {
		return err
	}
	for _, v := range volumes {
		fmt.Fprintln(e.Stdout(), v)
	}
	return nil
}

func removeVolumes(ctx context.Context, app *App, force, execute bool) error {
	e, err := app.newEngine(ctx, app.isRemote(false))
	if err != nil {
		return err
	}
	volumes, err := e.ListVolumes(ctx)
	if err != nil {
		return err
	}
	if len(volumes) == 0 {
		return nil
	}
	return runOrPrint(ctx, e, execute, container.RemoveVolumesArgs(volumes, force))
}

func (f persistentFlags) volume(ws *workspace) runner.VolumeSpec {
	return runner.VolumeSpec{
		Target:       ws.Target,
		Metadata:     ws.Metadata,
		Layout:       ws.Dirs,
		CommitID:     ws.Version.CommitID(),
		CopyRegistry: f.copyRegistry,
	}
}

func createPersistentVolume(ctx context.Context, app *App, flags persistentFlags) error {
	e, err := app.newEngine(ctx, app.isRemote(false))
	if err != nil {
		return err
	}
	ws, err := app.loadWorkspace(ctx, e, workspaceOptions{Target: flags.target, ConfigPath: flags.configPath})
	if err != nil {
		return err
	}

	r := runner.New(e, runner.WithGetenv(app.getenv), runner.WithToolchain(ws.Rustc))
	name, err := r.CreatePersistentVolume(ctx, flags.volume(ws))
	if err != nil {
		return err
	}
	if !e.DryRun() {
		fmt.Fprintln(app.stderr, SuccessStyle.Render("created volume ")+name)
	}
	return nil
}

func removePersistentVolume(ctx context.Context, app *App, flags persistentFlags) error {
	e, err := app.newEngine(ctx, app.isRemote(false))
	if err != nil {
		return err
	}
	ws, err := app.loadWorkspace(ctx, e, workspaceOptions{Target: flags.target, ConfigPath: flags.configPath})
	if err != nil {
		return err
	}
	return runner.New(e, runner.WithGetenv(app.getenv)).RemovePersistentVolume(ctx, flags.volume(ws))
}

// runOrPrint runs args on the engine with --execute, and otherwise prints
// the command line to stdout.
func runOrPrint(ctx context.Context, e *container.Engine, execute bool, args []string) error {
	if execute {
		return e.Run(ctx, args...)
	}
	fmt.Fprintln(e.Stdout(), e.CommandLine(args...))
	return nil
}
