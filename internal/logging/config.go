package logging

import (
	"io"
	"time"
)

// DefaultPath is where log records are appended unless overridden by
// the --log flag or the PBL_LOG environment variable.
const DefaultPath = "/var/log/pbl.log"

// Config holds configuration for the logger
type Config struct {
	// Path is the append-mode log sink
	Path string

	// Level is the minimum log level written to the sink
	Level Level

	// Program is the program name used in session ids and error mirroring
	Program string

	// Version is logged in the one-line system identity record
	Version string

	// Mirror is where error records are mirrored when the sink is not a
	// console. Defaults to os.Stderr when nil.
	Mirror io.Writer

	// Now supplies record timestamps. Defaults to time.Now when nil.
	Now func() time.Time
}

// DefaultConfig returns the standard configuration:
// INFO and above appended to /var/log/pbl.log
func DefaultConfig() Config {
	return Config{
		Path:    DefaultPath,
		Level:   LevelInfo,
		Program: "pbl",
		Version: "dev",
	}
}
