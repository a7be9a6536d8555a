package run

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bootlox/pbl/internal/logging"
)

func newTestExecutor(t *testing.T) (*Executor, *bytes.Buffer, string) {
	t.Helper()

	logPath := filepath.Join(t.TempDir(), "pbl.log")
	log := logging.New(logging.Config{
		Path:    logPath,
		Level:   logging.LevelDebug,
		Program: "pbl",
		Mirror:  &bytes.Buffer{},
	})
	t.Cleanup(func() { log.Close() })

	var stdout bytes.Buffer
	e := &Executor{
		Log:     log,
		Stdout:  &stdout,
		TempDir: t.TempDir(),
	}
	return e, &stdout, logPath
}

func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "script")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755))
	return path
}

func readLog(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestRunSuccess(t *testing.T) {
	e, stdout, logPath := newTestExecutor(t)
	script := writeScript(t, "echo configuring\nexit 0\n")

	res := e.Run(context.Background(), script)

	assert.Equal(t, 0, res.ExitCode)
	assert.Equal(t, "configuring\n", res.Output)
	assert.Empty(t, res.Payload)
	assert.Empty(t, stdout.String())

	log := readLog(t, logPath)
	assert.Contains(t, log, `= 0`)
	assert.Contains(t, log, "configuring")
}

func TestRunNonzeroExit(t *testing.T) {
	e, _, logPath := newTestExecutor(t)
	script := writeScript(t, "echo broken >&2\nexit 3\n")

	res := e.Run(context.Background(), script)

	assert.Equal(t, 3, res.ExitCode)
	assert.Equal(t, "broken\n", res.Output)

	log := readLog(t, logPath)
	assert.Contains(t, log, "<3>")
	assert.Contains(t, log, `= 3`)
}

func TestRunCombinedOutputOrder(t *testing.T) {
	e, _, _ := newTestExecutor(t)
	script := writeScript(t, "echo out\necho err >&2\necho again\n")

	res := e.Run(context.Background(), script)

	assert.Equal(t, "out\nerr\nagain\n", res.Output)
}

func TestSideChannelPayload(t *testing.T) {
	e, stdout, logPath := newTestExecutor(t)
	script := writeScript(t, `printf X > "$PBL_RESULT"`+"\nexit 0\n")

	res := e.Run(context.Background(), script)

	assert.Equal(t, 0, res.ExitCode)
	assert.Equal(t, "X", res.Payload)
	assert.Equal(t, "X\n", stdout.String())
	assert.Contains(t, readLog(t, logPath), "result:")
}

func TestSideChannelNotReadOnFailure(t *testing.T) {
	e, stdout, _ := newTestExecutor(t)
	script := writeScript(t, `printf X > "$PBL_RESULT"`+"\nexit 1\n")

	res := e.Run(context.Background(), script)

	assert.Equal(t, 1, res.ExitCode)
	assert.Empty(t, res.Payload)
	assert.Empty(t, stdout.String())
}

func TestSideChannelEmptyPayloadIsSilent(t *testing.T) {
	e, stdout, _ := newTestExecutor(t)
	script := writeScript(t, "exit 0\n")

	res := e.Run(context.Background(), script)

	assert.Equal(t, 0, res.ExitCode)
	assert.Empty(t, res.Payload)
	assert.Empty(t, stdout.String())
}

func TestResultFileDiscarded(t *testing.T) {
	e, _, _ := newTestExecutor(t)
	script := writeScript(t, "exit 0\n")

	e.Run(context.Background(), script)

	entries, err := os.ReadDir(e.TempDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSpawnFailure(t *testing.T) {
	e, _, logPath := newTestExecutor(t)
	missing := filepath.Join(t.TempDir(), "does-not-exist")

	res := e.Run(context.Background(), missing)

	assert.Equal(t, 127, res.ExitCode)
	assert.Contains(t, res.Output, missing)

	log := readLog(t, logPath)
	assert.Contains(t, log, "= 127")
}

func TestChildSeesEnvironment(t *testing.T) {
	e, stdout, _ := newTestExecutor(t)
	e.Env = append(os.Environ(), "SYS__BOOTLOADER__LOADER_TYPE=grub2")
	script := writeScript(t, `printf '%s' "$SYS__BOOTLOADER__LOADER_TYPE" > "$PBL_RESULT"`+"\n")

	res := e.Run(context.Background(), script)

	assert.Equal(t, "grub2", res.Payload)
	assert.True(t, strings.HasPrefix(stdout.String(), "grub2"))
}
