package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"kiosk/commands"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := commands.NewRoot().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, commands.Describe(err))
		stop()
		os.Exit(1)
	}
}
