// SPDX-License-Identifier: MPL-2.0

package image

import (
	"context"
	"io"
	"slices"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/crossbox/crossbox/internal/container"
	"github.com/crossbox/crossbox/internal/testutil"
)

func TestHelperProcess(t *testing.T) { testutil.HelperProcess() }

const imageListing = `ghcr.io/cross-rs/aarch64-unknown-linux-gnu:0.2.5 1f2e3d4c5b6a
ghcr.io/cross-rs/aarch64-unknown-linux-gnu:local 9a8b7c6d5e4f
ghcr.io/cross-rs/thumbv8m.main-none-eabi:main 0a0b0c0d0e0f
rustembedded/cross:x86_64-unknown-linux-gnu-0.2.1 abcdefabcdef
docker.io/rustembedded/cross:thumbv8m.main-none-eabi 123412341234
ubuntu:22.04 feedfacefeed
<none>:<none> deadbeefdead
`

func TestParseImageList(t *testing.T) {
	t.Parallel()

	got := ParseImageList(imageListing, false)
	want := []Image{
		{Repository: "docker.io/rustembedded/cross", Tag: "thumbv8m.main-none-eabi", ID: "123412341234", Target: "thumbv8m.main-none-eabi"},
		{Repository: "ghcr.io/cross-rs/aarch64-unknown-linux-gnu", Tag: "0.2.5", ID: "1f2e3d4c5b6a", Target: "aarch64-unknown-linux-gnu"},
		{Repository: "ghcr.io/cross-rs/thumbv8m.main-none-eabi", Tag: "main", ID: "0a0b0c0d0e0f", Target: "thumbv8m.main-none-eabi"},
		{Repository: "rustembedded/cross", Tag: "x86_64-unknown-linux-gnu-0.2.1", ID: "abcdefabcdef", Target: "x86_64-unknown-linux-gnu"},
	}
	if !slices.Equal(got, want) {
		t.Errorf("ParseImageList() =\n  %v\nwant\n  %v", got, want)
	}

	withLocal := ParseImageList(imageListing, true)
	if len(withLocal) != len(want)+1 {
		t.Errorf("ParseImageList(local) returned %d images, want %d", len(withLocal), len(want)+1)
	}
}

func TestLegacyTarget(t *testing.T) {
	t.Parallel()

	for _, triple := range []string{"x86_64-unknown-linux-gnu", "x86_64-apple-darwin", "thumbv8m.main-none-eabi"} {
		if got := LegacyTarget(triple); got != triple {
			t.Errorf("LegacyTarget(%q) = %q", triple, got)
		}
		if got := LegacyTarget(triple + "-0.2.1"); got != triple {
			t.Errorf("LegacyTarget(%q) = %q, want %q", triple+"-0.2.1", got, triple)
		}
	}
}

func TestSelect(t *testing.T) {
	t.Parallel()

	images := []Image{
		{ID: "a", Target: "aarch64-unknown-linux-gnu"},
		{ID: "a", Target: "aarch64-unknown-linux-gnu"},
		{ID: "b", Target: "x86_64-unknown-linux-gnu"},
	}
	if got := Select(images, nil); !slices.Equal(got, []string{"a", "b"}) {
		t.Errorf("Select(all) = %v", got)
	}
	if got := Select(images, []string{"x86_64-unknown-linux-gnu"}); !slices.Equal(got, []string{"b"}) {
		t.Errorf("Select(x86_64) = %v", got)
	}
	if got := RemoveArgs([]string{"a", "b"}, true); !slices.Equal(got, []string{"rmi", "--force", "a", "b"}) {
		t.Errorf("RemoveArgs() = %v", got)
	}
}

func TestList(t *testing.T) {
	t.Parallel()

	rec := testutil.NewMockCommandRecorder()
	rec.On("images", testutil.MockResponse{Stdout: imageListing})
	e := container.New(container.KindDocker, "docker", false,
		container.WithExecCommand(rec.ContextCommandFunc(t)),
		container.WithLogger(log.New(io.Discard)))

	images, err := List(context.Background(), e, true)
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(images) != 5 {
		t.Errorf("List() returned %d images, want 5", len(images))
	}
	if got := rec.LastArgs(); !slices.Equal(got, []string{"images", "--format", "{{.Repository}}:{{.Tag}} {{.ID}}"}) {
		t.Errorf("args = %v", got)
	}
}
