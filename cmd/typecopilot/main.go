package main

import (
	"context"
	"fmt"
	"os"

	"golang.design/x/hotkey/mainthread"

	"github.com/doeshing/typecopilot/internal/infrastructure/cli"
	"github.com/doeshing/typecopilot/internal/infrastructure/hotkey"
	"github.com/doeshing/typecopilot/internal/pkg/logger"
	"github.com/doeshing/typecopilot/internal/ports"
)

func main() {
	// Global hotkeys must be registered from the main thread on macOS.
	mainthread.Init(func() {
		os.Exit(run())
	})
}

func run() int {
	ctx := context.Background()
	opts := cli.Options{
		Verbose: logger.DebugFromEnv(),
		NewListener: func(log ports.Logger) ports.HotkeyListener {
			return hotkey.NewListener(log)
		},
	}

	if err := cli.Execute(ctx, opts); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}
	return 0
}
