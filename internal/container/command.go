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

	"mvdan.cc/sh/v3/syntax"
)

// Command creates an exec.Cmd for the given engine arguments, applying the
// --remote prefix when the dialect requires it. Standard streams are left
// unset; callers attach them.
func (e *Engine) Command(ctx context.Context, args ...string) *exec.Cmd {
	return e.execCommand(ctx, e.path, e.fullArgs(args)...)
}

func (e *Engine) fullArgs(args []string) []string {
	if e.NeedsRemoteFlag() {
		return append([]string{"--remote"}, args...)
	}
	return args
}

// CommandLine renders the engine invocation as a shell-quoted string.
func (e *Engine) CommandLine(args ...string) string {
	return ShellJoin(append([]string{e.path}, e.fullArgs(args)...))
}

// ShellJoin quotes each word for a POSIX shell and joins them with spaces.
func ShellJoin(words []string) string {
	quoted := make([]string, 0, len(words))
	for _, w := range words {
		q, err := syntax.Quote(w, syntax.LangPOSIX)
		if err != nil {
			// Only strings with NUL bytes or invalid UTF-8 are unquotable.
			q = fmt.Sprintf("%q", w)
		}
		quoted = append(quoted, q)
	}
	return strings.Join(quoted, " ")
}

// echo prints the command line when verbose or dry-run is on and reports
// whether the command should actually run.
func (e *Engine) echo(args []string) bool {
	if e.verbose || e.dryRun {
		e.logger.Info("+ " + e.CommandLine(args...))
	}
	return !e.dryRun
}

// Run executes an engine command with the process's standard streams.
// A non-zero exit is returned as *ExecError.
func (e *Engine) Run(ctx context.Context, args ...string) error {
	if !e.echo(args) {
		return nil
	}
	cmd := e.Command(ctx, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return e.wrapErr(cmd.Run(), args, "")
}

// Status executes an engine command with the process's standard streams
// and returns its exit code. Only failures to start the command are
// returned as errors.
func (e *Engine) Status(ctx context.Context, args ...string) (int, error) {
	if !e.echo(args) {
		return 0, nil
	}
	cmd := e.Command(ctx, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	err := cmd.Run()
	if err == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	return 1, fmt.Errorf("could not execute %s: %w", e.CommandLine(args...), err)
}

// Output executes an engine command and returns its stdout.
// Stderr is captured into the *ExecError on failure.
func (e *Engine) Output(ctx context.Context, args ...string) (string, error) {
	if !e.echo(args) {
		return "", nil
	}
	cmd := e.Command(ctx, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", e.wrapErr(err, args, stderr.String())
	}
	return stdout.String(), nil
}

// Quiet executes an engine command discarding its output. Stderr is kept
// for the *ExecError on failure.
func (e *Engine) Quiet(ctx context.Context, args ...string) error {
	_, err := e.Output(ctx, args...)
	return err
}

// Succeeds reports whether an engine command exits zero. Output is
// discarded. An error is returned only if the command could not run.
func (e *Engine) Succeeds(ctx context.Context, args ...string) (bool, error) {
	if !e.echo(args) {
		return false, nil
	}
	cmd := e.Command(ctx, args...)
	cmd.Stdout = io.Discard
	cmd.Stderr = io.Discard
	err := cmd.Run()
	if err == nil {
		return true, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return false, nil
	}
	return false, fmt.Errorf("could not execute %s: %w", e.CommandLine(args...), err)
}

func (e *Engine) wrapErr(err error, args []string, stderr string) error {
	if err == nil {
		return nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &ExecError{
			Command:  e.CommandLine(args...),
			ExitCode: exitErr.ExitCode(),
			Stderr:   strings.TrimSpace(stderr),
		}
	}
	return fmt.Errorf("could not execute %s: %w", e.CommandLine(args...), err)
}
