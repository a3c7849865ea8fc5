package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"fooddiary/internal/cli"
	"fooddiary/internal/ctl"
)

func main() {
	cli.LoadEnvFile()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := ctl.Execute(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
