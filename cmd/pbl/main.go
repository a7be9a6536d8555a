package main

import (
	"context"
	"os"
	"path/filepath"

	"github.com/bootlox/pbl/internal/cmd"
	"github.com/bootlox/pbl/internal/exitcode"
)

func main() {
	ctx := context.Background()

	// The binary doubles as the legacy update-bootloader when installed
	// (or linked) under that name.
	if filepath.Base(os.Args[0]) == cmd.LegacyName {
		exitcode.Exit(cmd.RunLegacy(ctx, os.Args[1:], os.Stdout, os.Stderr))
	}

	exitcode.Exit(cmd.Execute(ctx))
}
