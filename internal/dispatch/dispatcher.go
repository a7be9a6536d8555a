// Package dispatch wires the settings, the action queue, the backend
// resolver and the command executor into one invocation: resolve the
// configured loader, run every queued action in order, and report the
// worst outcome.
package dispatch

import (
	"context"
	"os"

	"github.com/bootlox/pbl/internal/action"
	"github.com/bootlox/pbl/internal/backend"
	"github.com/bootlox/pbl/internal/config"
	"github.com/bootlox/pbl/internal/errors"
	"github.com/bootlox/pbl/internal/exitcode"
	"github.com/bootlox/pbl/internal/logging"
	"github.com/bootlox/pbl/internal/run"
)

// Dispatcher executes one invocation's queue against the resolved
// backend. All failures are local to one action; the queue never aborts
// early.
type Dispatcher struct {
	Settings *config.Settings
	Log      *logging.Logger
	Resolver *backend.Resolver
	Executor *run.Executor

	// Program is the invocation name (argv0 base), used for the legacy
	// fallback target
	Program string

	// Args are the original command-line arguments, passed through
	// unchanged to the legacy fallback
	Args []string

	// PassThrough is appended to every backend script invocation
	// (legacy-compat mode forwards unrecognized arguments this way)
	PassThrough []string

	// ExecImage replaces the process image; overridable in tests.
	// nil means backend.ExecFallback.
	ExecImage func(path string, args []string, env []string) error
}

// Run executes the queue and returns the process exit code: the worst
// per-action code, 0 when nothing ran or everything succeeded, 1 when
// the legacy fallback is required but missing.
func (d *Dispatcher) Run(ctx context.Context, queue []action.Action) int {
	loader := d.Resolver.Loader
	if loader == "" {
		// A valid system state (containers, some VM images), not an
		// error.
		d.Log.Infof("no bootloader configured")
		return exitcode.Success
	}

	d.Log.Dump(logging.LevelDebug, "settings:", d.Settings.Map(), 0)

	env := d.Executor.Env
	if env == nil {
		env = d.Settings.ChildEnv(os.Environ())
		d.Executor.Env = env
	}

	if !d.Resolver.HasBackend() {
		return d.fallback(env)
	}

	worst := exitcode.Success
	for _, a := range queue {
		script := d.Resolver.Resolve(a.Verb)
		if script.State == backend.Missing {
			d.Log.Infof("skipping %s: %s not available", a, script.Path)
			continue
		}

		var args []string
		if a.Arg != "" {
			args = append(args, a.Arg)
		}
		args = append(args, d.PassThrough...)

		res := d.Executor.Run(ctx, script.Path, args...)
		worst = exitcode.Worst(worst, res.ExitCode)
	}

	return worst
}

// fallback hands the whole invocation to the legacy executable by
// replacing the process image. Reaching the return statements at all
// means the exec failed.
func (d *Dispatcher) fallback(env []string) int {
	execImage := d.ExecImage
	if execImage == nil {
		execImage = backend.ExecFallback
	}

	path := d.Resolver.FallbackPath(d.Program)
	d.Log.Infof("no backend for %q, falling back to %s", d.Resolver.Loader, path)

	if err := execImage(path, d.Args, env); err != nil {
		d.Log.Errorf("%v", errors.NewFallbackMissingError(path))
		return exitcode.UsageError
	}
	return exitcode.Success
}
