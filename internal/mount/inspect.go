// SPDX-License-Identifier: MPL-2.0

package mount

import (
	"encoding/json"
	"fmt"
)

type (
	inspectEntry struct {
		Mounts      []inspectMount      `json:"Mounts"`
		GraphDriver *inspectGraphDriver `json:"GraphDriver"`
	}

	inspectMount struct {
		Source      string `json:"Source"`
		Destination string `json:"Destination"`
	}

	inspectGraphDriver struct {
		Name string            `json:"Name"`
		Data map[string]string `json:"Data"`
	}
)

// ParseInspect extracts the mount table from `inspect <container>` output:
// every user mount, plus the overlay2 merged directory as the source of "/".
func ParseInspect(data []byte) ([]MountDetail, error) {
	var entries []inspectEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("%w: failed to parse inspect output: %w", ErrMountTranslation, err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: inspect output is empty", ErrMountTranslation)
	}
	entry := entries[0]

	mounts := make([]MountDetail, 0, len(entry.Mounts)+1)
	for _, m := range entry.Mounts {
		if m.Source == "" || m.Destination == "" {
			return nil, fmt.Errorf("%w: mount entry without source or destination", ErrMountTranslation)
		}
		mounts = append(mounts, MountDetail{Source: m.Source, Destination: m.Destination})
	}

	if entry.GraphDriver == nil || entry.GraphDriver.Name == "" {
		return nil, fmt.Errorf("%w: no driver name found", ErrMountTranslation)
	}
	if entry.GraphDriver.Name != RequiredStorageDriver {
		return nil, &UnsupportedStorageDriverError{Driver: entry.GraphDriver.Name}
	}
	merged := entry.GraphDriver.Data["MergedDir"]
	if merged == "" {
		return nil, fmt.Errorf("%w: no merge directory found", ErrMountTranslation)
	}
	mounts = append(mounts, MountDetail{Source: merged, Destination: "/"})

	return mounts, nil
}
