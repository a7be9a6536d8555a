package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/bootlox/pbl/internal/action"
	"github.com/bootlox/pbl/internal/backend"
	"github.com/bootlox/pbl/internal/config"
	"github.com/bootlox/pbl/internal/dispatch"
	"github.com/bootlox/pbl/internal/exitcode"
	"github.com/bootlox/pbl/internal/logging"
	"github.com/bootlox/pbl/internal/run"
	"github.com/bootlox/pbl/internal/version"
)

const legacyUsage = `Usage: update-bootloader [--reinit] [ARG]...

Compatibility wrapper around pbl. Writes the bootloader configuration;
with --reinit the bootloader is reinstalled first. Any other argument is
passed through unchanged to the backend scripts, or to the legacy
` + backend.Root + `/update-bootloader.old executable when no backend
directory exists for the configured loader.

Options:
  --reinit    reinstall the bootloader before writing its configuration
  --help      show this help
`

// RunLegacy handles the legacy-compat invocation mode: the program was
// started under its old name, so the flag surface shrinks to --reinit
// and --help, a config action is always queued, and everything else
// passes through unchanged.
func RunLegacy(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	reinit := false
	var passThrough []string
	for _, arg := range args {
		switch arg {
		case "--reinit":
			reinit = true
		case "--help", "-h":
			fmt.Fprint(stdout, legacyUsage)
			return exitcode.Success
		default:
			passThrough = append(passThrough, arg)
		}
	}

	overrides, err := config.ParseOverrides()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitcode.UsageError
	}
	logPath := overrides.LogPath
	if logPath == "" {
		logPath = logging.DefaultPath
	}

	log := logging.New(logging.Config{
		Path:    logPath,
		Level:   logging.ParseLevel(overrides.LogLevel),
		Program: LegacyName,
		Version: version.GetInfo().Short(),
	})
	defer log.Close()
	logging.SetDefaultLogger(log)

	log.Infof("arguments: %q", args)

	settings := config.NewSettings(sysconfDir)
	for _, source := range []string{config.BootloaderSource, config.LanguageSource} {
		if err := settings.Load(source); err != nil {
			log.Warnf("%v", err)
		}
	}

	d := &dispatch.Dispatcher{
		Settings:    settings,
		Log:         log,
		Resolver:    &backend.Resolver{Root: backendRoot, Loader: settings.LoaderType()},
		Executor:    &run.Executor{Log: log, Stdout: stdout},
		Program:     LegacyName,
		Args:        args,
		PassThrough: passThrough,
	}

	return d.Run(ctx, action.BuildLegacy(reinit))
}
