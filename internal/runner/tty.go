// SPDX-License-Identifier: MPL-2.0

package runner

import (
	"os"

	"golang.org/x/term"
)

// TTY records which standard streams are terminals.
type TTY struct {
	Stdin  bool
	Stdout bool
	Stderr bool
}

// DetectTTY inspects the process's standard streams.
func DetectTTY() TTY {
	return TTY{
		Stdin:  term.IsTerminal(int(os.Stdin.Fd())),
		Stdout: term.IsTerminal(int(os.Stdout.Fd())),
		Stderr: term.IsTerminal(int(os.Stderr.Fd())),
	}
}

// All reports whether every standard stream is a terminal.
func (t TTY) All() bool {
	return t.Stdin && t.Stdout && t.Stderr
}

// interactiveArgs returns -i when stdin is a terminal, plus -t when the
// output streams are too.
func (t TTY) interactiveArgs() []string {
	if !t.Stdin {
		return nil
	}
	if t.Stdout && t.Stderr {
		return []string{"-i", "-t"}
	}
	return []string{"-i"}
}

// detachedArgs returns -t for a detached container when every stream is a
// terminal.
func (t TTY) detachedArgs() []string {
	if t.All() {
		return []string{"-t"}
	}
	return nil
}
