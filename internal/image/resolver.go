// SPDX-License-Identifier: MPL-2.0

package image

import (
	_ "embed"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/google/go-containerregistry/pkg/name"

	"github.com/crossbox/crossbox/internal/issue"
	"github.com/crossbox/crossbox/internal/target"
)

const (
	// Registry is the registry and namespace of the published images.
	Registry = "ghcr.io/cross-rs"

	// MainTag is the moving tag of images built from the main branch.
	MainTag = "main"
)

// Version is the released image tag. Set at build time via -ldflags.
var Version = "0.2.5"

// commitInfo is non-empty in builds from a source checkout, which use the
// main images instead of a release.
//
//go:embed commit-info.txt
var commitInfo string

// ErrImageNotAvailable is returned when a target has neither a configured
// nor a published image.
var ErrImageNotAvailable = errors.New("image not available")

// Resolver picks the image for a target.
type Resolver struct {
	supported []target.Triple
	tag       string
}

// NewResolver returns a Resolver over the published targets, tagged for
// this build.
func NewResolver() *Resolver {
	return &Resolver{supported: supportedTargets, tag: buildTag(commitInfo, Version)}
}

func buildTag(commitInfo, version string) string {
	if strings.TrimSpace(commitInfo) != "" {
		return MainTag
	}
	return version
}

// Supported reports whether t has a published image.
func (r *Resolver) Supported(t target.Triple) bool {
	return slices.Contains(r.supported, t)
}

// Tag returns the tag published images are pulled at.
func (r *Resolver) Tag() string { return r.tag }

// Resolve returns configured if it is set. Otherwise t must have a
// published image, which is returned as a normalized reference.
func (r *Resolver) Resolve(t target.Triple, configured string) (string, error) {
	if configured != "" {
		return configured, nil
	}

	if !r.Supported(t) {
		return "", issue.NewErrorContext().
			WithOperation("resolve image").
			WithResource(t.String()).
			WithSuggestion("specify a custom image in Cross.toml").
			WithIssue(issue.ImageNotAvailableId).
			Wrap(fmt.Errorf("%w: crossbox does not provide a container image for target %s", ErrImageNotAvailable, t)).
			BuildError()
	}

	ref, err := name.NewTag(fmt.Sprintf("%s/%s:%s", Registry, t, r.tag), name.StrictValidation)
	if err != nil {
		return "", fmt.Errorf("invalid image reference for %s: %w", t, err)
	}
	return ref.Name(), nil
}
