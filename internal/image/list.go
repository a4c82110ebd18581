// SPDX-License-Identifier: MPL-2.0

package image

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/google/go-containerregistry/pkg/name"

	"github.com/crossbox/crossbox/internal/container"
)

const (
	legacyRepository = "rustembedded/cross"
	localTagPrefix   = "local"
	listFormat       = "{{.Repository}}:{{.Tag}} {{.ID}}"
)

// Image is one crossbox image known to the engine.
type Image struct {
	Repository string
	Tag        string
	// ID is what images are removed by, since one ID may carry many tags.
	ID string
	// Target is the triple the image builds for.
	Target string
}

// Name returns "repository:tag".
func (i Image) Name() string {
	return i.Repository + ":" + i.Tag
}

// IsLocal reports whether the image was built locally rather than pulled.
func (i Image) IsLocal() bool {
	return strings.HasPrefix(i.Tag, localTagPrefix)
}

// ParseImageList parses `images --format "{{.Repository}}:{{.Tag}} {{.ID}}"`
// output, keeping crossbox images only. Local images are dropped unless
// local is set. The result is sorted by name.
func ParseImageList(out string, local bool) []Image {
	var images []Image
	for line := range strings.Lines(out) {
		ref, id, ok := strings.Cut(strings.TrimSpace(line), " ")
		if !ok {
			continue
		}
		img, ok := classify(ref, strings.TrimSpace(id))
		if !ok || (!local && img.IsLocal()) {
			continue
		}
		images = append(images, img)
	}
	slices.SortFunc(images, func(a, b Image) int {
		return cmp.Or(cmp.Compare(a.Name(), b.Name()), cmp.Compare(a.ID, b.ID))
	})
	return images
}

// classify recognizes the current ghcr.io images and the legacy
// rustembedded/cross ones on Docker Hub, explicit or implicit registry.
func classify(ref, id string) (Image, bool) {
	tag, err := name.NewTag(ref, name.WeakValidation)
	if err != nil {
		// untagged "<none>" images and the like
		return Image{}, false
	}

	repo := strings.TrimSuffix(ref, ":"+tag.TagStr())
	img := Image{Repository: repo, Tag: tag.TagStr(), ID: id}

	registry, namespace, _ := strings.Cut(Registry, "/")
	switch {
	case tag.RegistryStr() == registry && strings.HasPrefix(tag.RepositoryStr(), namespace+"/"):
		img.Target = strings.TrimPrefix(tag.RepositoryStr(), namespace+"/")
	case tag.RegistryStr() == name.DefaultRegistry && tag.RepositoryStr() == legacyRepository:
		img.Target = LegacyTarget(tag.TagStr())
	default:
		return Image{}, false
	}
	return img, true
}

// LegacyTarget extracts the triple from a rustembedded/cross tag of the form
// <triple>[-<version>]. The first three components are always kept; later
// ones only while they consist of [A-Za-z0-9_].
func LegacyTarget(tag string) string {
	var components []string
	for i, c := range strings.Split(tag, "-") {
		if i > 2 && (c == "" || !isTargetComponent(c)) {
			break
		}
		components = append(components, c)
	}
	return strings.Join(components, "-")
}

func isTargetComponent(s string) bool {
	for _, r := range s {
		if r != '_' && (r < '0' || r > '9') && (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return false
		}
	}
	return true
}

// List returns the crossbox images known to the engine.
func List(ctx context.Context, e *container.Engine, local bool) ([]Image, error) {
	out, err := e.Output(ctx, "images", "--format", listFormat)
	if err != nil {
		return nil, fmt.Errorf("failed to list images: %w", err)
	}
	return ParseImageList(out, local), nil
}

// Select returns the IDs of images building any of targets, or of every
// image when targets is empty. Each ID appears once.
func Select(images []Image, targets []string) []string {
	var ids []string
	for _, img := range images {
		if len(targets) > 0 && !slices.Contains(targets, img.Target) {
			continue
		}
		if !slices.Contains(ids, img.ID) {
			ids = append(ids, img.ID)
		}
	}
	return ids
}

// RemoveArgs returns the engine arguments removing images by ID.
func RemoveArgs(ids []string, force bool) []string {
	args := []string{"rmi"}
	if force {
		args = append(args, "--force")
	}
	return append(args, ids...)
}
