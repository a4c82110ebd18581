// SPDX-License-Identifier: MPL-2.0

package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/crossbox/crossbox/internal/cleanup"
	"github.com/crossbox/crossbox/internal/container"
	"github.com/crossbox/crossbox/internal/target"
)

// MountPrefix is where the remote data volume is mounted.
const MountPrefix = "/cross"

const (
	cacheDirTag = "CACHEDIR.TAG"
	// cacheDirSignature starts every CACHEDIR.TAG, see https://bford.info/cachedir/.
	cacheDirSignature = "Signature: 8a477f597d28d172789f06886806bc55"
)

// stager copies host paths into a running container.
type stager struct {
	engine    *container.Engine
	container string
	// copyCache disables skipping of cache directories.
	copyCache bool
}

// mkdir creates dir and its parents inside the container.
func (s *stager) mkdir(ctx context.Context, dir string) error {
	return s.shell(ctx, "create "+dir, container.ShellJoin([]string{"mkdir", "-p", dir}))
}

// reset removes whatever an earlier run left at dst. A directory dst is
// recreated empty; for a file only its parent is created.
func (s *stager) reset(ctx context.Context, dst string, dir bool) error {
	parent := dst
	if !dir {
		parent = path.Dir(dst)
	}
	script := container.ShellJoin([]string{"rm", "-rf", dst}) + " && " + container.ShellJoin([]string{"mkdir", "-p", parent})
	return s.shell(ctx, "reset "+dst, script)
}

func (s *stager) shell(ctx context.Context, what, script string) error {
	if err := s.engine.Run(ctx, "exec", s.container, "sh", "-c", script); err != nil {
		return fmt.Errorf("failed to %s in %s: %w", what, s.container, err)
	}
	return nil
}

// copyIn runs `cp -a src C:dst`. A directory src becomes dst when dst does
// not exist yet and is placed inside it otherwise.
func (s *stager) copyIn(ctx context.Context, src, dst string) error {
	if err := s.engine.Run(ctx, "cp", "-a", src, s.container+":"+dst); err != nil {
		return fmt.Errorf("failed to copy %s to %s:%s: %w", src, s.container, dst, err)
	}
	return nil
}

// copy replaces dst with src, leaving out cache directories unless
// copyCache is set. Persistent volumes keep dst between runs, so it is
// reset first and a directory is copied by its contents.
func (s *stager) copy(ctx context.Context, src, dst string) error {
	info, err := os.Stat(src)
	if err != nil && !s.engine.DryRun() {
		return fmt.Errorf("failed to stat %s: %w", src, err)
	}
	dir := err != nil || info.IsDir()
	if err := s.reset(ctx, dst, dir); err != nil {
		return err
	}
	if !dir {
		return s.copyIn(ctx, src, dst)
	}
	if s.copyCache || s.engine.DryRun() {
		return s.copyIn(ctx, contents(src), dst)
	}

	tmp, remove, err := cleanup.TempDir("crossbox-stage-")
	if err != nil {
		return err
	}
	defer remove()

	if err := copyDir(src, tmp, func(p string, d fs.DirEntry, _ int) bool {
		return d.IsDir() && IsCacheDir(p)
	}); err != nil {
		return err
	}
	return s.copyIn(ctx, contents(tmp), dst)
}

// contents names the entries of dir for `cp`, which then copies them into
// an existing destination instead of nesting dir inside it.
func contents(dir string) string {
	return strings.TrimRight(dir, string(filepath.Separator)) + string(filepath.Separator) + "."
}

// stageXargo copies the target's xargo sysroot, if one was built.
func (s *stager) stageXargo(ctx context.Context, xargo string, t target.Triple) error {
	src := filepath.Join(xargo, "lib", "rustlib", t.String())
	if !exists(src) {
		return nil
	}
	dst := path.Join(MountPrefix, "xargo", "lib", "rustlib", t.String())
	if err := s.mkdir(ctx, path.Dir(dst)); err != nil {
		return err
	}
	return s.copyIn(ctx, src, dst)
}

// stageCargo copies the cargo home. Without copyRegistry the git and
// registry caches and dotfiles are left out; cargo refetches them.
func (s *stager) stageCargo(ctx context.Context, cargo string, copyRegistry bool) error {
	dst := path.Join(MountPrefix, "cargo")
	if copyRegistry {
		return s.copyIn(ctx, cargo, dst)
	}

	if err := s.mkdir(ctx, dst); err != nil {
		return err
	}
	entries, err := os.ReadDir(cargo)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", cargo, err)
	}
	for _, e := range entries {
		name := e.Name()
		if strings.HasPrefix(name, ".") || name == "git" || name == "registry" {
			continue
		}
		if err := s.copyIn(ctx, filepath.Join(cargo, name), dst); err != nil {
			return err
		}
	}
	return nil
}

// stageRust copies the parts of the sysroot a build for t needs: the
// executables, the non-rustlib libraries, rustlib's shared files, and the
// standard libraries of t and of the host whose libdir is hostLibdir.
func (s *stager) stageRust(ctx context.Context, sysroot string, t target.Triple, hostLibdir string) error {
	dst := path.Join(MountPrefix, "rust")
	if err := s.mkdir(ctx, dst); err != nil {
		return err
	}
	for _, name := range []string{"bin", "libexec", "etc"} {
		src := filepath.Join(sysroot, name)
		if !exists(src) {
			continue
		}
		if err := s.copyIn(ctx, src, dst); err != nil {
			return err
		}
	}

	srcRustlib := filepath.Join(sysroot, "lib", "rustlib")
	dstRustlib := path.Join(dst, "lib", "rustlib")

	tmp, remove, err := cleanup.TempDir("crossbox-rust-")
	if err != nil {
		return err
	}
	defer remove()

	err = copyDir(filepath.Join(sysroot, "lib"), tmp, func(_ string, d fs.DirEntry, depth int) bool {
		return depth == 0 && d.Name() == "rustlib"
	})
	if err != nil {
		return err
	}
	if err := os.Mkdir(filepath.Join(tmp, "rustlib"), 0o755); err != nil && !errors.Is(err, os.ErrExist) {
		return fmt.Errorf("failed to create staging directory: %w", err)
	}
	err = copyDir(srcRustlib, filepath.Join(tmp, "rustlib"), func(_ string, d fs.DirEntry, depth int) bool {
		if depth != 0 {
			return false
		}
		return d.IsDir() && d.Name() != "src" && d.Name() != "etc"
	})
	if err != nil {
		return err
	}
	// lib must not exist yet, or tmp would land inside it.
	if err := s.copyIn(ctx, tmp, path.Join(dst, "lib")); err != nil {
		return err
	}
	if err := s.mkdir(ctx, dstRustlib); err != nil {
		return err
	}

	if src := filepath.Join(srcRustlib, t.String()); exists(src) {
		if err := s.copyIn(ctx, src, dstRustlib); err != nil {
			return err
		}
	}
	return s.copyIn(ctx, filepath.Dir(hostLibdir), dstRustlib)
}

// IsCacheDir reports whether dir holds a CACHEDIR.TAG that starts with the
// exact signature line.
func IsCacheDir(dir string) bool {
	f, err := os.Open(filepath.Join(dir, cacheDirTag))
	if err != nil {
		return false
	}
	defer f.Close()

	buf := make([]byte, len(cacheDirSignature)+1)
	n, err := io.ReadFull(f, buf)
	switch {
	case n < len(cacheDirSignature):
		return false
	case !bytes.Equal(buf[:len(cacheDirSignature)], []byte(cacheDirSignature)):
		return false
	case errors.Is(err, io.ErrUnexpectedEOF):
		return true
	default:
		// Anything after the signature must start a new line.
		return buf[len(cacheDirSignature)] == '\n' || buf[len(cacheDirSignature)] == '\r'
	}
}

// copyDir copies the tree under src into the existing directory dst.
// Entries for which skip returns true are left out along with their
// contents; depth is 0 for the direct children of src.
func copyDir(src, dst string, skip func(p string, d fs.DirEntry, depth int) bool) error {
	return filepath.WalkDir(src, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, p)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		if skip(p, d, strings.Count(rel, string(filepath.Separator))) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		dstPath := filepath.Join(dst, rel)
		switch {
		case d.IsDir():
			if err := os.Mkdir(dstPath, 0o755); err != nil && !errors.Is(err, os.ErrExist) {
				return fmt.Errorf("failed to create %s: %w", dstPath, err)
			}
			return nil
		case d.Type()&fs.ModeSymlink != 0:
			link, err := os.Readlink(p)
			if err != nil {
				return fmt.Errorf("failed to read link %s: %w", p, err)
			}
			return os.Symlink(link, dstPath)
		case d.Type().IsRegular():
			return copyFile(p, dstPath)
		default:
			return nil
		}
	})
}

func copyFile(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", src, err)
	}
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return fmt.Errorf("failed to copy %s: %w", src, err)
	}
	return out.Close()
}

func exists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
