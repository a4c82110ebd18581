// SPDX-License-Identifier: MPL-2.0

// Package cleanup owns the process-lifetime termination flag and the
// temporary directories removed when the process is interrupted.
//
// Deferred release of containers and volumes happens on ordinary unwinding
// only. An interrupt removes local temporary directories and exits; a hard
// kill runs nothing.
package cleanup

import (
	"fmt"
	"os"
	"os/signal"
	"slices"
	"sync"
	"sync/atomic"
	"syscall"
)

// InterruptExitCode is the exit status after an interrupt, 128+SIGINT.
const InterruptExitCode = 130

var (
	// terminating is set once, by the first interrupt.
	terminating atomic.Bool

	mu       sync.Mutex
	tempDirs []string
)

// TempDir creates a registered temporary directory. The returned function
// removes and unregisters it.
func TempDir(pattern string) (string, func(), error) {
	dir, err := os.MkdirTemp("", pattern)
	if err != nil {
		return "", func() {}, fmt.Errorf("failed to create temporary directory: %w", err)
	}
	Register(dir)
	return dir, func() {
		Unregister(dir)
		_ = os.RemoveAll(dir)
	}, nil
}

// Register adds a path to remove on interrupt.
func Register(path string) {
	mu.Lock()
	defer mu.Unlock()
	tempDirs = append(tempDirs, path)
}

// Unregister forgets a path.
func Unregister(path string) {
	mu.Lock()
	defer mu.Unlock()
	tempDirs = slices.DeleteFunc(tempDirs, func(p string) bool { return p == path })
}

// Terminate sets the termination flag. The first call removes every
// registered path and reports true; later calls do nothing.
func Terminate() bool {
	if terminating.Swap(true) {
		return false
	}
	mu.Lock()
	paths := tempDirs
	tempDirs = nil
	mu.Unlock()
	for _, p := range paths {
		_ = os.RemoveAll(p)
	}
	return true
}

// Install runs Terminate and then exit(InterruptExitCode) on SIGINT or
// SIGTERM. The returned function stops the handler.
func Install(exit func(int)) func() {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
	done := make(chan struct{})
	go func() {
		select {
		case <-ch:
			Terminate()
			exit(InterruptExitCode)
		case <-done:
		}
	}()
	return func() {
		signal.Stop(ch)
		close(done)
	}
}

// reset restores the initial state, for tests.
func reset() {
	terminating.Store(false)
	mu.Lock()
	tempDirs = nil
	mu.Unlock()
}
