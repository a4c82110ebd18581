// SPDX-License-Identifier: MPL-2.0

package mount

import (
	"cmp"
	"path"
	"slices"
	"strings"
)

type (
	// MountDetail is one entry of a container's mount table.
	MountDetail struct {
		// Source is the path on the engine's host.
		Source string
		// Destination is the path as seen by the current process.
		Destination string
	}

	// Finder translates paths through a mount table. The zero value and a
	// nil *Finder translate every path to itself.
	Finder struct {
		mounts []MountDetail
	}
)

// NewFinder builds a Finder. Entries are ordered by destination length,
// longest first, so the most specific mount wins regardless of input order.
func NewFinder(mounts []MountDetail) *Finder {
	sorted := slices.Clone(mounts)
	slices.SortStableFunc(sorted, func(a, b MountDetail) int {
		return cmp.Compare(len(b.Destination), len(a.Destination))
	})
	return &Finder{mounts: sorted}
}

// Mounts returns the translation table in match order.
func (f *Finder) Mounts() []MountDetail {
	if f == nil {
		return nil
	}
	return slices.Clone(f.mounts)
}

// FindMountPath rewrites p by replacing the longest matching destination
// prefix with its source. Prefixes match whole path components only; an
// unmatched path is returned unchanged.
func (f *Finder) FindMountPath(p string) string {
	if f == nil {
		return p
	}
	for _, m := range f.mounts {
		if rest, ok := stripPrefix(p, m.Destination); ok {
			if rest == "" {
				return m.Source
			}
			return path.Join(m.Source, rest)
		}
	}
	return p
}

func stripPrefix(p, prefix string) (string, bool) {
	prefix = strings.TrimSuffix(prefix, "/")
	if prefix == "" {
		// the root mount
		if !strings.HasPrefix(p, "/") {
			return "", false
		}
		return strings.TrimPrefix(p, "/"), true
	}
	if p == prefix {
		return "", true
	}
	if rest, ok := strings.CutPrefix(p, prefix+"/"); ok {
		return rest, true
	}
	return "", false
}
