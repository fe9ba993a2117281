package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"curator/internal/coordinator"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	cmd := newRootCommand()
	err := cmd.ExecuteContext(ctx)
	cancel()
	if err != nil {
		if !errors.Is(err, context.Canceled) && !errors.Is(err, coordinator.ErrIssuesRemain) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
