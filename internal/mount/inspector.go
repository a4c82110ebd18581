// SPDX-License-Identifier: MPL-2.0

package mount

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/crossbox/crossbox/internal/container"
)

// HostnameEnvVar holds the current container's id inside an engine container.
const HostnameEnvVar = "HOSTNAME"

// Inspector lazily reads the current container's mount table from the
// engine. The table is computed on first use and cached, including a
// failure.
type Inspector struct {
	engine *container.Engine
	getenv func(string) string

	once   sync.Once
	finder *Finder
	err    error
}

// NewInspector creates an Inspector that queries e. A nil getenv means
// os.Getenv.
func NewInspector(e *container.Engine, getenv func(string) string) *Inspector {
	if getenv == nil {
		getenv = os.Getenv
	}
	return &Inspector{engine: e, getenv: getenv}
}

// Finder returns the translation table of the current container.
// A nil *Inspector yields the identity Finder.
func (i *Inspector) Finder(ctx context.Context) (*Finder, error) {
	if i == nil {
		return nil, nil
	}
	i.once.Do(func() {
		i.finder, i.err = i.load(ctx)
	})
	return i.finder, i.err
}

func (i *Inspector) load(ctx context.Context) (*Finder, error) {
	hostname := i.getenv(HostnameEnvVar)
	if hostname == "" {
		return nil, fmt.Errorf("%w: %s environment variable not found", ErrMountTranslation, HostnameEnvVar)
	}
	if i.engine.DryRun() {
		// nothing runs in dry-run mode, so there is no table to read
		return NewFinder(nil), nil
	}

	out, err := i.engine.Output(ctx, "inspect", hostname)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMountTranslation, err)
	}
	mounts, err := ParseInspect([]byte(out))
	if err != nil {
		return nil, err
	}
	finder := NewFinder(mounts)
	for _, m := range finder.Mounts() {
		i.engine.Logger().Debug("container mount", "container", hostname, "destination", m.Destination, "source", m.Source)
	}
	return finder, nil
}
