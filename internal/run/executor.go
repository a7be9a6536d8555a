// Package run executes one backend script per queued action and enforces
// the result-file protocol: the child may write a structured result to a
// temporary file named by the PBL_RESULT environment variable, distinct
// from its captured stdout/stderr.
package run

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/bootlox/pbl/internal/errors"
	"github.com/bootlox/pbl/internal/exitcode"
	"github.com/bootlox/pbl/internal/logging"
)

// ResultEnv names the side-channel result file on the child environment.
// The variable is part of the backend script contract.
const ResultEnv = "PBL_RESULT"

// Result is the outcome of one command invocation
type Result struct {
	// ExitCode is the child's exit code, or 127 if it could not be
	// started at all
	ExitCode int

	// Output is the captured combined stdout/stderr text
	Output string

	// Payload is the side-channel result, read only when ExitCode is 0
	Payload string
}

// Executor runs backend scripts one at a time, synchronously
type Executor struct {
	// Log receives one record per invocation
	Log *logging.Logger

	// Env is the child environment; nil means os.Environ()
	Env []string

	// Stdout is where side-channel payloads surface to the caller;
	// nil means os.Stdout
	Stdout io.Writer

	// TempDir holds the per-invocation result files; "" means the
	// system temp directory
	TempDir string
}

// Run executes one command and waits for it. The full command line, exit
// code and captured output are always logged, at error level when the
// exit code is nonzero. The side-channel file is read only on exit 0;
// a non-empty payload is printed verbatim to Stdout and logged. A spawn
// failure is reported as exit code 127 with a diagnostic line in the
// captured stream.
func (e *Executor) Run(ctx context.Context, path string, args ...string) Result {
	resultPath := e.createResultFile()
	if resultPath != "" {
		defer os.Remove(resultPath)
	}

	cmd := exec.CommandContext(ctx, path, args...)

	env := e.Env
	if env == nil {
		env = os.Environ()
	}
	if resultPath != "" {
		env = append(env[:len(env):len(env)], ResultEnv+"="+resultPath)
	}
	cmd.Env = env

	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output

	exitCode := 0
	if err := cmd.Run(); err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		} else {
			// Command failed to start; keep the diagnostic in the
			// captured stream so it is logged like any other failure.
			exitCode = exitcode.SpawnFailure
			fmt.Fprintf(&output, "%v\n", errors.NewSpawnError(path, err))
		}
	}

	res := Result{
		ExitCode: exitCode,
		Output:   output.String(),
	}

	cmdline := strings.Join(append([]string{path}, args...), " ")
	level := logging.LevelInfo
	if exitCode != 0 {
		level = logging.LevelError
	}
	if res.Output != "" {
		e.Log.Attach(level, fmt.Sprintf("%q = %d", cmdline, exitCode), res.Output)
	} else {
		e.Log.Logf(level, "%q = %d", cmdline, exitCode)
	}

	if exitCode == 0 && resultPath != "" {
		res.Payload = e.readResult(resultPath)
	}

	return res
}

// createResultFile makes the uniquely named side-channel file for one
// invocation. Failure disables the side channel for this command only.
func (e *Executor) createResultFile() string {
	dir := e.TempDir
	if dir == "" {
		dir = os.TempDir()
	}
	path := filepath.Join(dir, "pbl.result."+uuid.NewString())

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		e.Log.Warnf("cannot create result file %s: %v", path, err)
		return ""
	}
	f.Close()

	return path
}

// readResult surfaces a non-empty payload to the caller's stdout
func (e *Executor) readResult(path string) string {
	data, err := os.ReadFile(path)
	if err != nil || len(data) == 0 {
		return ""
	}

	payload := strings.TrimRight(string(data), "\n")

	stdout := e.Stdout
	if stdout == nil {
		stdout = io.Writer(os.Stdout)
	}
	fmt.Fprintln(stdout, payload)

	e.Log.Attach(logging.LevelInfo, "result:", payload)

	return payload
}
