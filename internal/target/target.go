// SPDX-License-Identifier: MPL-2.0

// Package target models a Rust target triple and the platform predicates the
// container runners need.
package target

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidTriple is the sentinel error wrapped by InvalidTripleError.
var ErrInvalidTriple = errors.New("invalid target triple")

type (
	// Triple is a target triple such as "aarch64-unknown-linux-gnu".
	Triple string

	// InvalidTripleError is returned when a Triple is empty or has fewer than
	// two dash-separated components.
	InvalidTripleError struct {
		Value Triple
	}
)

func (e *InvalidTripleError) Error() string {
	return fmt.Sprintf("invalid target triple %q", string(e.Value))
}

// Unwrap returns ErrInvalidTriple for errors.Is() compatibility.
func (e *InvalidTripleError) Unwrap() error { return ErrInvalidTriple }

// Validate returns an error if the triple is not plausibly a target triple.
func (t Triple) Validate() error {
	s := string(t)
	if strings.TrimSpace(s) != s || s == "" || strings.ContainsAny(s, " /\\:") {
		return &InvalidTripleError{Value: t}
	}
	if len(strings.Split(s, "-")) < 2 {
		return &InvalidTripleError{Value: t}
	}
	return nil
}

func (t Triple) String() string { return string(t) }

// Arch returns the first component of the triple.
func (t Triple) Arch() string {
	arch, _, _ := strings.Cut(string(t), "-")
	return arch
}

// IsAndroid reports whether the triple targets Android.
func (t Triple) IsAndroid() bool {
	return strings.Contains(string(t), "android")
}

// NeedsSeccomp reports whether containers for this target need the bundled
// seccomp profile. 32-bit Android emulation makes syscalls that the default
// engine profile blocks.
func (t Triple) NeedsSeccomp() bool {
	arch := t.Arch()
	is32 := strings.HasPrefix(arch, "arm") ||
		strings.HasPrefix(arch, "thumb") ||
		arch == "i586" || arch == "i686"
	return is32 && t.IsAndroid()
}

// EnvKey returns the triple in the form used for environment variable
// names: upper case with dashes and dots replaced by underscores.
func (t Triple) EnvKey() string {
	r := strings.NewReplacer("-", "_", ".", "_")
	return strings.ToUpper(r.Replace(string(t)))
}
