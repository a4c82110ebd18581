// SPDX-License-Identifier: MPL-2.0

// Package toolchain queries the host Rust toolchain.
package toolchain

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
)

// ErrToolchainQuery is returned when rustc cannot answer a query.
var ErrToolchainQuery = errors.New("toolchain query failed")

type (
	// VersionMeta is the parsed output of `rustc -vV`.
	VersionMeta struct {
		Release    string
		CommitHash string
		Host       string
	}

	// Rustc runs toolchain queries.
	Rustc struct {
		execCommand func(ctx context.Context, name string, arg ...string) *exec.Cmd
	}

	// Option configures a Rustc.
	Option func(*Rustc)
)

// WithExecCommand replaces exec.CommandContext, for tests.
func WithExecCommand(fn func(ctx context.Context, name string, arg ...string) *exec.Cmd) Option {
	return func(r *Rustc) {
		r.execCommand = fn
	}
}

// New returns a Rustc.
func New(opts ...Option) *Rustc {
	r := &Rustc{execCommand: exec.CommandContext}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Rustc) output(ctx context.Context, name string, args ...string) (string, error) {
	cmd := r.execCommand(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return "", fmt.Errorf("%w: `%s %s`: %w", ErrToolchainQuery, name, strings.Join(args, " "), err)
		}
		return "", fmt.Errorf("%w: `%s %s`: %w: %s", ErrToolchainQuery, name, strings.Join(args, " "), err, msg)
	}
	return strings.TrimSpace(stdout.String()), nil
}

// Sysroot returns the active toolchain's sysroot.
func (r *Rustc) Sysroot(ctx context.Context) (string, error) {
	return r.output(ctx, "rustc", "--print", "sysroot")
}

// Version returns the host toolchain's version metadata.
func (r *Rustc) Version(ctx context.Context) (VersionMeta, error) {
	out, err := r.output(ctx, "rustc", "-vV")
	if err != nil {
		return VersionMeta{}, err
	}
	return ParseVersion(out)
}

// TargetLibdir returns the toolchain's own target library directory, e.g.
// <sysroot>/lib/rustlib/x86_64-unknown-linux-gnu/lib.
func (r *Rustc) TargetLibdir(ctx context.Context, sysroot string) (string, error) {
	return r.output(ctx, filepath.Join(sysroot, "bin", "rustc"), "--print", "target-libdir")
}

// ParseVersion parses `rustc -vV` output.
func ParseVersion(out string) (VersionMeta, error) {
	var meta VersionMeta
	for line := range strings.Lines(out) {
		key, value, ok := strings.Cut(strings.TrimSpace(line), ": ")
		if !ok {
			continue
		}
		switch key {
		case "release":
			meta.Release = value
		case "commit-hash":
			meta.CommitHash = value
		case "host":
			meta.Host = value
		}
	}
	if meta.Release == "" || meta.Host == "" {
		return VersionMeta{}, fmt.Errorf("%w: unexpected rustc -vV output", ErrToolchainQuery)
	}
	return meta, nil
}

// CommitID returns the commit hash, or the release version when rustc was
// built without one.
func (m VersionMeta) CommitID() string {
	if m.CommitHash == "" || m.CommitHash == "unknown" {
		return m.Release
	}
	return m.CommitHash
}
