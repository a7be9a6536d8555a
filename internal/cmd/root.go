package cmd

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/bootlox/pbl/internal/action"
	"github.com/bootlox/pbl/internal/backend"
	"github.com/bootlox/pbl/internal/config"
	"github.com/bootlox/pbl/internal/dispatch"
	"github.com/bootlox/pbl/internal/exitcode"
	"github.com/bootlox/pbl/internal/logging"
	"github.com/bootlox/pbl/internal/run"
	"github.com/bootlox/pbl/internal/version"
)

// LegacyName is the compatibility invocation name; main routes it to
// RunLegacy instead of the cobra surface.
const LegacyName = "update-bootloader"

// Overridable in tests
var (
	sysconfDir     = config.DefaultDir
	backendRoot    = backend.Root
	invocationName = filepath.Base(os.Args[0])
	invocationArgs = os.Args[1:]
)

// ExitError carries a specific process exit code out of a cobra RunE
type ExitError struct {
	Code int
}

// Error implements the error interface for ExitError
func (e *ExitError) Error() string {
	return fmt.Sprintf("exit code %d", e.Code)
}

var (
	flagInstall   bool
	flagConfig    bool
	flagShow      bool
	flagDefault   string
	flagAddOption string
	flagDelOption string
	flagGetOption string
	flagLog       string
	flagLogLevel  string
)

var rootCmd = &cobra.Command{
	Use:   "pbl",
	Short: "Bootloader configuration dispatcher",
	Long: `pbl translates bootloader management requests into invocations of
backend-specific scripts under ` + backend.Root + `/<loader>/, falling back
to the legacy <name>.old executables when no backend directory exists for
the configured LOADER_TYPE.`,
	Args:          cobra.NoArgs,
	SilenceErrors: true,
	SilenceUsage:  true,
	RunE:          runRoot,
}

func init() {
	rootCmd.Flags().BoolVar(&flagInstall, "install", false, "install the configured bootloader")
	rootCmd.Flags().BoolVar(&flagConfig, "config", false, "write the bootloader configuration")
	rootCmd.Flags().BoolVar(&flagShow, "show", false, "print the configured bootloader and exit")
	rootCmd.Flags().StringVar(&flagDefault, "default", "", "set the default boot entry")
	rootCmd.Flags().StringVar(&flagAddOption, "add-option", "", "add a boot option")
	rootCmd.Flags().StringVar(&flagDelOption, "del-option", "", "remove a boot option")
	rootCmd.Flags().StringVar(&flagGetOption, "get-option", "", "print the value of a boot option")
	rootCmd.Flags().StringVar(&flagLog, "log", logging.DefaultPath, "log file")
	rootCmd.Flags().StringVar(&flagLogLevel, "loglevel", "", "minimum log level (0-3 or debug/info/warn/error)")

	rootCmd.Version = version.GetInfo().Short()
	rootCmd.SetVersionTemplate("pbl {{.Version}}\n")
}

// Execute runs the primary CLI surface and returns the process exit code
func Execute(ctx context.Context) int {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		var exitErr *ExitError
		if stderrors.As(err, &exitErr) {
			// An action failed; its output is already logged and no
			// usage text is warranted.
			return exitErr.Code
		}
		fmt.Fprintf(rootCmd.ErrOrStderr(), "Error: %v\n", err)
		fmt.Fprint(rootCmd.ErrOrStderr(), rootCmd.UsageString())
		return exitcode.UsageError
	}
	return exitcode.Success
}

func runRoot(cmd *cobra.Command, args []string) error {
	overrides, err := config.ParseOverrides()
	if err != nil {
		return err
	}

	logPath := flagLog
	if !cmd.Flags().Changed("log") && overrides.LogPath != "" {
		logPath = overrides.LogPath
	}
	level := flagLogLevel
	if level == "" {
		level = overrides.LogLevel
	}

	log := logging.New(logging.Config{
		Path:    logPath,
		Level:   logging.ParseLevel(level),
		Program: "pbl",
		Version: version.GetInfo().Short(),
	})
	defer log.Close()
	logging.SetDefaultLogger(log)

	log.Infof("arguments: %q", invocationArgs)

	settings := config.NewSettings(sysconfDir)
	for _, source := range []string{config.BootloaderSource, config.LanguageSource} {
		if err := settings.Load(source); err != nil {
			log.Warnf("%v", err)
		}
	}

	if flagShow {
		// Never touches the action queue; the configured name may be
		// empty and that still succeeds.
		fmt.Fprintln(cmd.OutOrStdout(), settings.LoaderType())
		return nil
	}

	queue := action.Build(action.Request{
		Install:   flagInstall,
		Config:    flagConfig,
		Default:   flagDefault,
		AddOption: flagAddOption,
		DelOption: flagDelOption,
		GetOption: flagGetOption,
	})

	d := &dispatch.Dispatcher{
		Settings: settings,
		Log:      log,
		Resolver: &backend.Resolver{Root: backendRoot, Loader: settings.LoaderType()},
		Executor: &run.Executor{Log: log, Stdout: cmd.OutOrStdout()},
		Program:  invocationName,
		Args:     invocationArgs,
	}

	if code := d.Run(cmd.Context(), queue); code != exitcode.Success {
		return &ExitError{Code: code}
	}
	return nil
}
