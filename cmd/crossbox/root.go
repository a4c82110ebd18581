// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"github.com/crossbox/crossbox/internal/cleanup"
	"github.com/crossbox/crossbox/internal/issue"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// newRootCommand creates the command tree rooted at `crossbox`.
func newRootCommand(app *App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "crossbox",
		Short: "Zero setup cross compilation for Cargo projects",
		Long: TitleStyle.Render("crossbox") + SubtitleStyle.Render(" - Zero setup cross compilation for Cargo projects") + `

crossbox runs cargo inside a container image that carries the linker,
C toolchain and runner for the requested target. The project, the cargo
home and the host toolchain are mounted into the container, or copied
into it when the engine runs on another machine.

` + SubtitleStyle.Render("Examples:") + `
  crossbox run --target aarch64-unknown-linux-gnu -- build --release
  crossbox run --remote -- test
  crossbox volumes create --target armv7-unknown-linux-gnueabihf
  crossbox images remove --local --execute`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().BoolVarP(&app.flags.verbose, "verbose", "v", false, "echo engine commands and enable debug output")
	rootCmd.PersistentFlags().BoolVar(&app.flags.dryRun, "dry-run", false, "print engine commands instead of running them")
	rootCmd.PersistentFlags().StringVar(&app.flags.engine, "engine", "", "container engine executable (default: "+
		"$CROSS_CONTAINER_ENGINE, then docker, then podman)")

	rootCmd.AddCommand(newRunCommand(app))
	rootCmd.AddCommand(newVolumesCommand(app))
	rootCmd.AddCommand(newContainersCommand(app))
	rootCmd.AddCommand(newImagesCommand(app))

	return rootCmd
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute builds the command tree and runs it. This is called by main.main().
func Execute() {
	stop := cleanup.Install(os.Exit)
	defer stop()

	app := NewApp(Dependencies{})
	err := fang.Execute(
		context.Background(),
		newRootCommand(app),
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	)
	if err == nil {
		return
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		if exitErr.Err != nil {
			renderIssue(os.Stderr, exitErr.Err, app.flags.verbose)
		}
		stop()
		os.Exit(exitErr.Code)
	}
	renderIssue(os.Stderr, err, app.flags.verbose)
	stop()
	os.Exit(1)
}

// formatErrorForDisplay formats an error for user display.
// ActionableErrors get their suggestions, and verboseMode adds the cause chain.
func formatErrorForDisplay(err error, verboseMode bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verboseMode)
	}
	return err.Error()
}

// renderIssue prints the catalog entry of err's issue under --verbose. fang
// has already printed the error itself.
func renderIssue(w io.Writer, err error, verboseMode bool) {
	if !verboseMode {
		return
	}
	fmt.Fprintln(w, formatErrorForDisplay(err, true))

	id := issue.IdOf(err)
	if id == 0 {
		return
	}
	entry := issue.Get(id)
	if entry == nil {
		return
	}
	rendered, renderErr := entry.Render("dark")
	if renderErr != nil {
		fmt.Fprintln(w, WarningStyle.Render("failed to render issue catalog entry: ")+renderErr.Error())
		return
	}
	fmt.Fprint(w, rendered)
}
