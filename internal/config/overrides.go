package config

import (
	"github.com/caarlos0/env/v11"
)

// Overrides are process-environment knobs for the dispatcher itself.
// They sit below explicit command-line flags.
type Overrides struct {
	// LogPath overrides the default log sink path
	LogPath string `env:"PBL_LOG"`

	// LogLevel is the minimum level written to the sink, by name or 0-3
	LogLevel string `env:"PBL_LOG_LEVEL" envDefault:"info"`
}

// ParseOverrides reads the overrides from the process environment
func ParseOverrides() (Overrides, error) {
	var o Overrides
	if err := env.Parse(&o); err != nil {
		return Overrides{}, err
	}
	return o, nil
}
