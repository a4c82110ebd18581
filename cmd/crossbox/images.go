// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/crossbox/crossbox/internal/image"
)

// newImagesCommand creates the `crossbox images` command tree.
func newImagesCommand(app *App) *cobra.Command {
	imagesCmd := &cobra.Command{
		Use:   "images",
		Short: "Manage crossbox images",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	var listLocal bool
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List crossbox images",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return listImages(cmd.Context(), app, listLocal)
		},
	}
	listCmd.Flags().BoolVarP(&listLocal, "local", "l", false, "include locally built images")
	imagesCmd.AddCommand(listCmd)

	var force, local, execute bool
	removeCmd := &cobra.Command{
		Use:   "remove [targets...]",
		Short: "Remove crossbox images",
		Long: `Remove the crossbox images of the given targets, or all of them.

Locally built images are kept unless --local is given. Without --execute
the removal command is printed but not run.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return removeImages(cmd.Context(), app, args, force, local, execute)
		},
	}
	removeCmd.Flags().BoolVarP(&force, "force", "f", false, "force removal of images in use")
	removeCmd.Flags().BoolVarP(&local, "local", "l", false, "also remove locally built images")
	removeCmd.Flags().BoolVarP(&execute, "execute", "x", false, "remove the images instead of printing the command")
	imagesCmd.AddCommand(removeCmd)

	return imagesCmd
}

func listImages(ctx context.Context, app *App, local bool) error {
	e, err := app.newEngine(ctx, app.isRemote(false))
	if err != nil {
		return err
	}
	images, err := image.List(ctx, e, local)
	if err != nil {
		return err
	}
	for _, img := range images {
		fmt.Fprintln(e.Stdout(), img.Name())
	}
	return nil
}

func removeImages(ctx context.Context, app *App, targets []string, force, local, execute bool) error {
	e, err := app.newEngine(ctx, app.isRemote(false))
	if err != nil {
		return err
	}
	images, err := image.List(ctx, e, local)
	if err != nil {
		return err
	}
	ids := image.Select(images, targets)
	if len(ids) == 0 {
		return nil
	}
	return runOrPrint(ctx, e, execute, image.RemoveArgs(ids, force))
}
