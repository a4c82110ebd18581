// SPDX-License-Identifier: MPL-2.0

// Package project reads the Cargo workspace layout from `cargo metadata`.
package project

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"

	"github.com/crossbox/crossbox/internal/issue"
)

// ErrMetadataUnavailable is returned when cargo metadata cannot be read.
var ErrMetadataUnavailable = errors.New("cargo metadata unavailable")

type (
	// Package is one package of the workspace or its dependencies.
	Package struct {
		ID           string  `json:"id"`
		Name         string  `json:"name"`
		Version      string  `json:"version"`
		ManifestPath string  `json:"manifest_path"`
		Source       *string `json:"source"`
	}

	// Metadata is the subset of `cargo metadata` crossbox uses.
	Metadata struct {
		WorkspaceRoot    string    `json:"workspace_root"`
		TargetDirectory  string    `json:"target_directory"`
		Packages         []Package `json:"packages"`
		WorkspaceMembers []string  `json:"workspace_members"`
	}

	// LoadOptions configures the cargo metadata invocation.
	LoadOptions struct {
		// Dir is the directory cargo runs in.
		Dir string
		// ManifestPath is passed as --manifest-path when set.
		ManifestPath string
		// TargetDir replaces the reported target directory when set.
		TargetDir string
		// Dependencies resolves the dependency graph. Without it cargo runs
		// with --no-deps and only workspace members are reported.
		Dependencies bool
		// FilterPlatform limits resolved dependencies to one target triple.
		FilterPlatform string
		// ExecCommand replaces exec.CommandContext, for tests.
		ExecCommand func(ctx context.Context, name string, arg ...string) *exec.Cmd
	}
)

// Load runs `cargo metadata --format-version 1`.
func Load(ctx context.Context, opts LoadOptions) (*Metadata, error) {
	execCommand := opts.ExecCommand
	if execCommand == nil {
		execCommand = exec.CommandContext
	}

	cmd := execCommand(ctx, "cargo", opts.args()...)
	cmd.Dir = opts.Dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		cause := fmt.Errorf("%w: %w", ErrMetadataUnavailable, err)
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			cause = fmt.Errorf("%w: %s", cause, msg)
		}
		return nil, issue.NewErrorContext().
			WithOperation("read cargo metadata").
			WithResource(opts.Dir).
			WithSuggestion("run crossbox from inside a Cargo project").
			WithSuggestion("check that cargo is installed and on PATH").
			WithIssue(issue.MetadataUnavailableId).
			Wrap(cause).
			BuildError()
	}

	m, err := Parse(stdout.Bytes())
	if err != nil {
		return nil, err
	}
	if opts.TargetDir != "" {
		m.TargetDirectory = opts.TargetDir
	}
	return m, nil
}

func (opts LoadOptions) args() []string {
	args := []string{"metadata", "--format-version", "1"}
	switch {
	case !opts.Dependencies:
		args = append(args, "--no-deps")
	case opts.FilterPlatform != "":
		args = append(args, "--filter-platform", opts.FilterPlatform)
	}
	if opts.ManifestPath != "" {
		args = append(args, "--manifest-path", opts.ManifestPath)
	}
	return args
}

// Parse decodes `cargo metadata` JSON output.
func Parse(data []byte) (*Metadata, error) {
	var m Metadata
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: failed to parse cargo metadata: %w", ErrMetadataUnavailable, err)
	}
	if m.WorkspaceRoot == "" || m.TargetDirectory == "" {
		return nil, fmt.Errorf("%w: workspace root or target directory missing", ErrMetadataUnavailable)
	}
	return &m, nil
}

// CratePath returns the directory holding the package manifest if the
// package has no registry or git source, i.e. it lives on the local disk.
func (p Package) CratePath() (string, bool) {
	if p.Source != nil {
		return "", false
	}
	return filepath.Dir(p.ManifestPath), true
}

// IsMember reports whether the package is a workspace member.
func (m *Metadata) IsMember(p Package) bool {
	return slices.Contains(m.WorkspaceMembers, p.ID)
}

// PathDependencies returns the directories of local packages outside the
// workspace members. They must be mounted alongside the project.
func (m *Metadata) PathDependencies() []string {
	var paths []string
	for _, p := range m.Packages {
		if m.IsMember(p) {
			continue
		}
		if dir, ok := p.CratePath(); ok {
			paths = append(paths, dir)
		}
	}
	return paths
}

// RootPackage returns the package whose manifest sits at the workspace
// root, else the first package. ok is false for an empty package list.
func (m *Metadata) RootPackage() (Package, bool) {
	if len(m.Packages) == 0 {
		return Package{}, false
	}
	for _, p := range m.Packages {
		if filepath.Dir(p.ManifestPath) == m.WorkspaceRoot {
			return p, true
		}
	}
	return m.Packages[0], true
}
