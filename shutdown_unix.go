//go:build unix

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
)

// watchForShutdown blocks waiting for a SIGINT or SIGTERM signal. SIGHUP
// rotates the log file instead. When a stop signal is received, cancelFn is
// called and this function returns. The context `ctx` being cancelled will
// also cause this function to return.
func watchForShutdown(ctx context.Context, cancelFn context.CancelFunc) {
	defer cancelFn()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigCh)
	for {
		select {
		case <-ctx.Done():
			// something else told us to exit
			return
		case sig := <-sigCh:
			if sig == syscall.SIGHUP {
				log.Infof("received signal '%s', rotating logs", sig)
				RotateLogs()
				continue
			}
			log.Infof("received signal '%s'", sig)
			return
		}
	}
}
