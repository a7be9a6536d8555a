// Package backend resolves dispatcher verbs to backend scripts under the
// fixed backend root, and computes the legacy fallback target when no
// backend directory exists for the configured loader.
package backend

import (
	"os"
	"path/filepath"
	"syscall"

	"github.com/bootlox/pbl/internal/action"
)

// Root is the fixed directory convention for backend scripts:
// Root/<loader>/<verb>. Legacy fallbacks live at Root/<program>.old.
const Root = "/usr/lib/bootloader"

// State tells whether a verb's script exists for the resolved backend
type State int

const (
	// Found means the script exists and is executable
	Found State = iota
	// Missing means the backend intentionally omits this verb; the
	// action is skipped, not failed
	Missing
)

// Script is the resolution of one verb against the backend directory
type Script struct {
	State State
	Path  string
}

// Resolver locates backend scripts for one configured loader
type Resolver struct {
	// Root of the backend directory tree
	Root string

	// Loader is the configured bootloader name
	Loader string
}

// New creates a Resolver for the given loader under the standard root
func New(loader string) *Resolver {
	return &Resolver{Root: Root, Loader: loader}
}

// HasBackend reports whether a backend directory exists for the loader
func (r *Resolver) HasBackend() bool {
	fi, err := os.Stat(filepath.Join(r.Root, r.Loader))
	return err == nil && fi.IsDir()
}

// Resolve maps a verb to its script. Missing or non-executable scripts
// resolve to Missing; some backends legitimately omit some verbs.
func (r *Resolver) Resolve(v action.Verb) Script {
	path := filepath.Join(r.Root, r.Loader, v.String())

	fi, err := os.Stat(path)
	if err != nil || !fi.Mode().IsRegular() || fi.Mode().Perm()&0o111 == 0 {
		return Script{State: Missing, Path: path}
	}

	return Script{State: Found, Path: path}
}

// FallbackPath returns the legacy executable consulted when no backend
// directory exists for the loader
func (r *Resolver) FallbackPath(program string) string {
	return filepath.Join(r.Root, program+".old")
}

// ExecFallback replaces the current process image with the legacy
// executable, passing the original arguments through unchanged. It only
// returns on failure.
func ExecFallback(path string, args []string, env []string) error {
	return syscall.Exec(path, append([]string{path}, args...), env)
}
