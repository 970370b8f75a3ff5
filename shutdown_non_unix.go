//go:build !unix

package main

import (
	"context"
	"os"
	"os/signal"
)

// watchForShutdown waits for an interrupt, which is the only signal portable
// to non-unix platforms, and then calls cancelFn.
func watchForShutdown(ctx context.Context, cancelFn context.CancelFunc) {
	defer cancelFn()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	defer signal.Stop(sigCh)
	select {
	case <-ctx.Done():
	case <-sigCh:
	}
}
