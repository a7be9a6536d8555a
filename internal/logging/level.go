package logging

// Level represents the severity of a log message.
// The numeric values are part of the on-disk record format.
type Level int

const (
	// LevelDebug is for detailed debugging information
	LevelDebug Level = 0
	// LevelInfo is for general informational messages
	LevelInfo Level = 1
	// LevelWarn is for warning messages that indicate potential issues
	LevelWarn Level = 2
	// LevelError is for error messages that indicate failures
	LevelError Level = 3
)

// String returns the string representation of the level
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel parses a string into a Level. Both names and the numeric
// forms 0-3 are accepted; anything else yields LevelInfo.
func ParseLevel(s string) Level {
	switch s {
	case "debug", "DEBUG", "0":
		return LevelDebug
	case "info", "INFO", "1":
		return LevelInfo
	case "warn", "WARN", "warning", "WARNING", "2":
		return LevelWarn
	case "error", "ERROR", "3":
		return LevelError
	default:
		return LevelInfo
	}
}
