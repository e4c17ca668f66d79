package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"keywordpulse/internal/cli"
)

// version is set at build time via ldflags
var version = "dev"

func main() {
	// A panic must not leave the terminal without a message.
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "CRITICAL ERROR: application panic recovered: %v\n", r)
			os.Exit(1)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cli.SetVersion(version)
	if err := cli.Execute(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error: "+err.Error())
		stop()
		os.Exit(1)
	}
}
