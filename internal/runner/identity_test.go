// SPDX-License-Identifier: MPL-2.0

package runner

import (
	"crypto/sha1" //nolint:gosec // mirrors the identity hash
	"encoding/hex"
	"errors"
	"testing"

	"github.com/crossbox/crossbox/internal/project"
	"github.com/crossbox/crossbox/internal/target"
)

func TestIdentity(t *testing.T) {
	t.Parallel()

	const sysroot = "/home/dev/.rustup/toolchains/stable-x86_64-unknown-linux-gnu"
	meta := workspace("/ws")

	got, err := Identity(meta, testTriple, sysroot, "82e1608dfa6e0b5569232559e3d385fea5a93112")
	if err != nil {
		t.Fatalf("Identity() error = %v", err)
	}
	h := func(s string) string {
		sum := sha1.Sum([]byte(s))
		return hex.EncodeToString(sum[:])[:5]
	}
	want := "cross-demo-aarch64-unknown-linux-gnu-" + h("/ws/Cargo.toml") + "-" + h(sysroot) +
		"-82e1608dfa6e0b5569232559e3d385fea5a93112"
	if got != want {
		t.Errorf("Identity() = %q, want %q", got, want)
	}

	again, _ := Identity(workspace("/ws"), testTriple, sysroot, "82e1608dfa6e0b5569232559e3d385fea5a93112")
	if again != got {
		t.Errorf("Identity() is not deterministic: %q != %q", again, got)
	}

	variants := map[string]func() (string, error){
		"manifest": func() (string, error) {
			return Identity(workspace("/other"), testTriple, sysroot, "82e1608dfa6e0b5569232559e3d385fea5a93112")
		},
		"triple": func() (string, error) {
			return Identity(meta, target.Triple("x86_64-pc-windows-gnu"), sysroot, "82e1608dfa6e0b5569232559e3d385fea5a93112")
		},
		"sysroot": func() (string, error) {
			return Identity(meta, testTriple, sysroot+"-nightly", "82e1608dfa6e0b5569232559e3d385fea5a93112")
		},
		"commit": func() (string, error) {
			return Identity(meta, testTriple, sysroot, "1.75.0")
		},
	}
	for name, fn := range variants {
		other, err := fn()
		if err != nil {
			t.Fatalf("%s: Identity() error = %v", name, err)
		}
		if other == got {
			t.Errorf("changing the %s did not change the identity", name)
		}
	}
}

func TestIdentity_PrefersRootPackage(t *testing.T) {
	t.Parallel()

	meta := workspace("/ws")
	meta.Packages = append([]project.Package{{Name: "member", ManifestPath: "/ws/crates/member/Cargo.toml"}}, meta.Packages...)

	got, err := Identity(meta, testTriple, "/s", "c")
	if err != nil {
		t.Fatalf("Identity() error = %v", err)
	}
	if want := "cross-demo-"; got[:len(want)] != want {
		t.Errorf("Identity() = %q, want the root package name", got)
	}
}

func TestIdentity_NoPackages(t *testing.T) {
	t.Parallel()

	_, err := Identity(&project.Metadata{WorkspaceRoot: "/ws"}, testTriple, "/s", "c")
	if !errors.Is(err, ErrNoPackages) {
		t.Errorf("Identity() error = %v, want ErrNoPackages", err)
	}
}
