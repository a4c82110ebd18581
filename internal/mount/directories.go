// SPDX-License-Identifier: MPL-2.0

package mount

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
)

type (
	// DirectoriesInput carries the raw paths Directories are resolved from.
	DirectoriesInput struct {
		// WorkspaceRoot is the Cargo workspace root.
		WorkspaceRoot string
		// TargetDir is the Cargo output directory.
		TargetDir string
		// Cwd is the current directory.
		Cwd string
		// Sysroot is the toolchain sysroot.
		Sysroot string
		// Getenv looks up CARGO_HOME, XARGO_HOME and NIX_STORE.
		// A nil Getenv means os.Getenv.
		Getenv func(string) string
		// Home overrides the user's home directory. Empty means xdg.Home.
		Home string
	}

	// Directories is the set of mountable paths of one build, translated
	// through the current container's mount table when crossbox runs inside
	// one. It is immutable once created.
	Directories struct {
		cargo     string
		xargo     string
		target    string
		nixStore  string
		hostRoot  string
		mountRoot string
		mountCwd  string
		sysroot   string
	}
)

// NewDirectories resolves every build path. The cargo home, xargo home and
// output directory are created first so the engine does not create them
// owned by its own user. A nil inspector means no translation.
func NewDirectories(ctx context.Context, in DirectoriesInput, inspector *Inspector) (*Directories, error) {
	getenv := in.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}
	home := in.Home
	if home == "" {
		home = xdg.Home
	}

	finder, err := inspector.Finder(ctx)
	if err != nil {
		return nil, err
	}

	cargo := getenv("CARGO_HOME")
	if cargo == "" {
		cargo = filepath.Join(home, ".cargo")
	}
	xargo := getenv("XARGO_HOME")
	if xargo == "" {
		xargo = filepath.Join(home, ".xargo")
	}
	for _, dir := range []string{cargo, xargo, in.TargetDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	hostRoot := in.WorkspaceRoot
	if IsAncestorOrSelf(in.Cwd, in.WorkspaceRoot) {
		hostRoot = in.Cwd
	}
	hostRoot = finder.FindMountPath(hostRoot)

	mountRoot, err := linuxPath(ctx, hostRoot)
	if err != nil {
		return nil, err
	}
	mountCwd, err := linuxPath(ctx, finder.FindMountPath(in.Cwd))
	if err != nil {
		return nil, err
	}

	d := &Directories{
		cargo:     finder.FindMountPath(cargo),
		xargo:     finder.FindMountPath(xargo),
		target:    finder.FindMountPath(in.TargetDir),
		hostRoot:  hostRoot,
		mountRoot: mountRoot,
		mountCwd:  mountCwd,
		sysroot:   finder.FindMountPath(in.Sysroot),
	}
	if nix := getenv("NIX_STORE"); nix != "" {
		d.nixStore = finder.FindMountPath(nix)
	}
	return d, nil
}

// IsAncestorOrSelf reports whether dir is p or one of its ancestors, by whole
// path components.
func IsAncestorOrSelf(dir, p string) bool {
	rel, err := filepath.Rel(dir, p)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

// CanonicalMountPath converts a host path to the form a bind mount expects.
func CanonicalMountPath(ctx context.Context, p string) (string, error) {
	return linuxPath(ctx, p)
}

// Cargo returns the cargo home.
func (d *Directories) Cargo() string { return d.cargo }

// Xargo returns the xargo home.
func (d *Directories) Xargo() string { return d.xargo }

// Target returns the output directory.
func (d *Directories) Target() string { return d.target }

// NixStore returns the nix store, or "" when NIX_STORE is unset.
func (d *Directories) NixStore() string { return d.nixStore }

// HostRoot returns the project root on the host: the current directory if
// it contains the workspace, else the workspace root.
func (d *Directories) HostRoot() string { return d.hostRoot }

// MountRoot returns HostRoot in bind-mount syntax.
func (d *Directories) MountRoot() string { return d.mountRoot }

// MountCwd returns the current directory in bind-mount syntax.
func (d *Directories) MountCwd() string { return d.mountCwd }

// Sysroot returns the toolchain sysroot.
func (d *Directories) Sysroot() string { return d.sysroot }
