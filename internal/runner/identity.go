// SPDX-License-Identifier: MPL-2.0

package runner

import (
	"crypto/sha1" //nolint:gosec // a short stable name, not a security boundary
	"encoding/hex"
	"fmt"

	"github.com/crossbox/crossbox/internal/project"
	"github.com/crossbox/crossbox/internal/target"
)

// Identity returns the deterministic container name of a remote build:
//
//	cross-{package}-{triple}-{manifest hash}-{sysroot hash}-{commit}
//
// The volume is named after it, with container.KeepSuffix for the
// persistent variant.
func Identity(meta *project.Metadata, t target.Triple, sysroot, commitID string) (string, error) {
	pkg, ok := meta.RootPackage()
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNoPackages, meta.WorkspaceRoot)
	}
	return fmt.Sprintf("cross-%s-%s-%s-%s-%s",
		pkg.Name, t, pathHash(pkg.ManifestPath), pathHash(sysroot), commitID), nil
}

func pathHash(p string) string {
	sum := sha1.Sum([]byte(p))
	return hex.EncodeToString(sum[:])[:5]
}
