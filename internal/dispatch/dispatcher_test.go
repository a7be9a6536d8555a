package dispatch

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bootlox/pbl/internal/action"
	"github.com/bootlox/pbl/internal/backend"
	"github.com/bootlox/pbl/internal/config"
	"github.com/bootlox/pbl/internal/logging"
	"github.com/bootlox/pbl/internal/run"
)

type fixture struct {
	dispatcher *Dispatcher
	stdout     *bytes.Buffer
	logPath    string
	backendDir string
}

func newFixture(t *testing.T, loader string) *fixture {
	t.Helper()

	cfgDir := t.TempDir()
	if loader != "" {
		require.NoError(t, os.WriteFile(
			filepath.Join(cfgDir, "bootloader"),
			[]byte(fmt.Sprintf("LOADER_TYPE=%q\n", loader)), 0o644))
	}

	settings := config.NewSettings(cfgDir)
	require.NoError(t, settings.Load(config.BootloaderSource))
	require.NoError(t, settings.Load(config.LanguageSource))

	logPath := filepath.Join(t.TempDir(), "pbl.log")
	log := logging.New(logging.Config{
		Path:    logPath,
		Level:   logging.LevelDebug,
		Program: "pbl",
		Mirror:  &bytes.Buffer{},
	})
	t.Cleanup(func() { log.Close() })

	root := t.TempDir()
	var stdout bytes.Buffer

	d := &Dispatcher{
		Settings: settings,
		Log:      log,
		Resolver: &backend.Resolver{Root: root, Loader: settings.LoaderType()},
		Executor: &run.Executor{
			Log:     log,
			Stdout:  &stdout,
			TempDir: t.TempDir(),
		},
		Program: "pbl",
	}

	return &fixture{
		dispatcher: d,
		stdout:     &stdout,
		logPath:    logPath,
		backendDir: filepath.Join(root, loader),
	}
}

func (f *fixture) addScript(t *testing.T, verb, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(f.backendDir, 0o755))
	require.NoError(t, os.WriteFile(
		filepath.Join(f.backendDir, verb), []byte("#!/bin/sh\n"+body), 0o755))
}

func (f *fixture) log(t *testing.T) string {
	t.Helper()
	data, err := os.ReadFile(f.logPath)
	require.NoError(t, err)
	return string(data)
}

func TestNoLoaderConfigured(t *testing.T) {
	f := newFixture(t, "")

	code := f.dispatcher.Run(context.Background(), action.Build(action.Request{Config: true}))

	assert.Equal(t, 0, code)
	assert.Contains(t, f.log(t), "no bootloader configured")
}

func TestQueueRunsInOrder(t *testing.T) {
	f := newFixture(t, "grub2")
	marker := filepath.Join(t.TempDir(), "order")
	f.addScript(t, "install", fmt.Sprintf("echo install >> %s\n", marker))
	f.addScript(t, "config", fmt.Sprintf("echo config >> %s\n", marker))

	code := f.dispatcher.Run(context.Background(), action.BuildLegacy(true))

	assert.Equal(t, 0, code)
	data, err := os.ReadFile(marker)
	require.NoError(t, err)
	assert.Equal(t, "install\nconfig\n", string(data))
}

func TestMissingVerbIsSkipped(t *testing.T) {
	f := newFixture(t, "grub2")
	f.addScript(t, "config", "exit 0\n")

	code := f.dispatcher.Run(context.Background(),
		action.Build(action.Request{Install: true, Config: true}))

	assert.Equal(t, 0, code)
	assert.Contains(t, f.log(t), "skipping install")
}

func TestWorstExitCodeWins(t *testing.T) {
	f := newFixture(t, "grub2")
	f.addScript(t, "install", "exit 2\n")
	f.addScript(t, "config", "exit 1\n")

	code := f.dispatcher.Run(context.Background(),
		action.Build(action.Request{Install: true, Config: true}))

	assert.Equal(t, 2, code)
}

func TestFailureDoesNotAbortQueue(t *testing.T) {
	f := newFixture(t, "grub2")
	marker := filepath.Join(t.TempDir(), "ran")
	f.addScript(t, "install", "exit 1\n")
	f.addScript(t, "config", fmt.Sprintf("touch %s\n", marker))

	code := f.dispatcher.Run(context.Background(),
		action.Build(action.Request{Install: true, Config: true}))

	assert.Equal(t, 1, code)
	_, err := os.Stat(marker)
	assert.NoError(t, err, "config must still run after install failed")
}

func TestActionArgumentReachesScript(t *testing.T) {
	f := newFixture(t, "grub2")
	f.addScript(t, "get-option", `printf '%s' "$1" > "$PBL_RESULT"`+"\n")

	code := f.dispatcher.Run(context.Background(),
		action.Build(action.Request{GetOption: "vgamode"}))

	assert.Equal(t, 0, code)
	assert.Equal(t, "vgamode\n", f.stdout.String())
}

func TestChildEnvCarriesSettings(t *testing.T) {
	f := newFixture(t, "grub2")
	f.addScript(t, "config", `printf '%s' "$SYS__BOOTLOADER__LOADER_TYPE" > "$PBL_RESULT"`+"\n")

	code := f.dispatcher.Run(context.Background(),
		action.Build(action.Request{Config: true}))

	assert.Equal(t, 0, code)
	assert.Equal(t, "grub2\n", f.stdout.String())
}

func TestFallbackWhenBackendDirMissing(t *testing.T) {
	f := newFixture(t, "exotic")
	f.dispatcher.Args = []string{"--config", "extra"}

	var gotPath string
	var gotArgs []string
	f.dispatcher.ExecImage = func(path string, args []string, env []string) error {
		gotPath = path
		gotArgs = args
		return nil
	}

	code := f.dispatcher.Run(context.Background(),
		action.Build(action.Request{Config: true}))

	assert.Equal(t, 0, code)
	assert.Equal(t, f.dispatcher.Resolver.FallbackPath("pbl"), gotPath)
	assert.Equal(t, []string{"--config", "extra"}, gotArgs)
}

func TestFallbackMissingIsError(t *testing.T) {
	f := newFixture(t, "exotic")
	f.dispatcher.ExecImage = func(path string, args []string, env []string) error {
		return fmt.Errorf("no such file")
	}

	code := f.dispatcher.Run(context.Background(),
		action.Build(action.Request{Config: true}))

	assert.Equal(t, 1, code)
	assert.Contains(t, f.log(t), "BACKEND-001")
}

func TestPassThroughArguments(t *testing.T) {
	f := newFixture(t, "grub2")
	f.dispatcher.PassThrough = []string{"--force", "extra"}
	f.addScript(t, "config", `printf '%s %s' "$1" "$2" > "$PBL_RESULT"`+"\n")

	code := f.dispatcher.Run(context.Background(), action.BuildLegacy(false))

	assert.Equal(t, 0, code)
	assert.Equal(t, "--force extra\n", f.stdout.String())
}
