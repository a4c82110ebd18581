// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/crossbox/crossbox/internal/container"
)

// newContainersCommand creates the `crossbox containers` command tree.
func newContainersCommand(app *App) *cobra.Command {
	containersCmd := &cobra.Command{
		Use:   "containers",
		Short: "Manage the containers of remote builds",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	containersCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List crossbox containers and their states",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return listContainers(cmd.Context(), app)
		},
	})

	var force, execute bool
	removeCmd := &cobra.Command{
		Use:   "remove",
		Short: "Stop and remove all crossbox containers",
		Long: `Stop and remove all crossbox containers.

Running containers are stopped first. Without --execute the commands are
printed but not run.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return removeContainers(cmd.Context(), app, force, execute)
		},
	}
	removeCmd.Flags().BoolVarP(&force, "force", "f", false, "force removal")
	removeCmd.Flags().BoolVarP(&execute, "execute", "x", false, "remove the containers instead of printing the commands")
	containersCmd.AddCommand(removeCmd)

	return containersCmd
}

func listContainers(ctx context.Context, app *App) error {
	e, err := app.newEngine(ctx, app.isRemote(false))
	if err != nil {
		return err
	}
	containers, err := e.ListContainers(ctx)
	if err != nil {
		return err
	}
	for _, c := range containers {
		fmt.Fprintf(e.Stdout(), "%s: %s\n", c.Name, c.State)
	}
	return nil
}

func removeContainers(ctx context.Context, app *App, force, execute bool) error {
	e, err := app.newEngine(ctx, app.isRemote(false))
	if err != nil {
		return err
	}
	containers, err := e.ListContainers(ctx)
	if err != nil {
		return err
	}
	for _, args := range container.RemoveContainersCommands(containers, force) {
		if err := runOrPrint(ctx, e, execute, args); err != nil {
			return err
		}
	}
	return nil
}
