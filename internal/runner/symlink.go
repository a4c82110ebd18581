// SPDX-License-Identifier: MPL-2.0

package runner

import (
	"context"
	"errors"
	"strings"

	"github.com/crossbox/crossbox/internal/container"
	"github.com/crossbox/crossbox/internal/issue"
)

// SymlinkCollisionExitCode is the status the link script exits with when a
// regular file sits where a staged path must be linked.
const SymlinkCollisionExitCode = 65

// Symlink links Target to the staged Source after the staged tree itself
// has been linked into place.
type Symlink struct {
	Source string
	Target string
}

// linkTree walks the staged tree. A path missing from the root file system
// is linked to its staged copy, a directory present on both sides is
// descended into, and a regular file already in place is fatal.
const linkTree = `symlink_recurse() {
    for f in "${1}"/*; do
        [ -e "${f}" ] || [ -L "${f}" ] || continue
        dst=${f#"$prefix"}
        if [ -f "${dst}" ]; then
            echo "invalid: got unexpected file at ${dst}" 1>&2
            exit 65
        elif [ -d "${dst}" ]; then
            symlink_recurse "${f}"
        else
            ln -s "${f}" "${dst}"
        fi
    done
}

symlink_recurse "${prefix}"`

// SymlinkScript returns the shell script that makes the staged data under
// prefix visible at its canonical paths. Ownership of the staged data is
// handed to uid:gid first.
func SymlinkScript(prefix, uid, gid string, trace bool, links []Symlink) string {
	quotedPrefix := container.ShellJoin([]string{prefix})
	lines := []string{"set -e"}
	if trace {
		lines = append(lines, "set -x")
	}
	lines = append(lines,
		"chown -R "+uid+":"+gid+" "+quotedPrefix+"/*",
		"prefix="+quotedPrefix,
		"",
		linkTree,
	)
	for _, l := range links {
		src, dst := container.ShellJoin([]string{l.Source}), container.ShellJoin([]string{l.Target})
		lines = append(lines, "if [ ! -e "+dst+" ]; then ln -s "+src+" "+dst+"; fi")
	}
	return strings.Join(lines, "\n") + "\n"
}

// linkStaged runs the link script inside the container.
func (r *Runner) linkStaged(ctx context.Context, name string, links []Symlink) error {
	uid, gid := r.userIDs()
	script := SymlinkScript(MountPrefix, uid, gid, r.engine.Verbose(), links)
	err := r.engine.Run(ctx, "exec", name, "sh", "-c", script)
	if code, ok := container.ExitCodeOf(err); ok && code == SymlinkCollisionExitCode {
		return issue.NewErrorContext().
			WithOperation("link staged data").
			WithResource(name).
			WithSuggestion("remove files from the image that shadow /cargo, /xargo, /rust, /target or the project path").
			WithSuggestion("run with --verbose to trace the link script").
			WithIssue(issue.SymlinkCollisionId).
			Wrap(errors.Join(ErrSymlinkCollision, err)).
			BuildError()
	}
	if err != nil {
		return issue.WrapWithContext(err, "link staged data", name)
	}
	return nil
}
