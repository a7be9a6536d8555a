package exitcode

import (
	"os"
)

// Exit codes for consistent error handling across the CLI
const (
	// Success indicates successful execution, including the "no bootloader
	// configured" case, which is a valid system state
	Success = 0

	// UsageError indicates invalid command usage (bad flags, missing args)
	// or a missing legacy fallback executable
	UsageError = 1

	// SpawnFailure is synthesized when a backend script cannot be started
	// (not found or not permitted), mirroring shell convention
	SpawnFailure = 127
)

// Exit terminates the program with the given exit code
func Exit(code int) {
	os.Exit(code)
}

// Worst returns the highest exit code among the given codes, or Success
// if none were recorded. Queued actions never abort each other, so the
// overall process outcome is the worst per-action outcome.
func Worst(codes ...int) int {
	worst := Success
	for _, c := range codes {
		if c > worst {
			worst = c
		}
	}
	return worst
}
