// Completion: 100% - Platform-specific module complete
//go:build linux || darwin || freebsd || netbsd || openbsd

package main

import (
	"os"
	"os/signal"

	"golang.org/x/sys/unix"
)

// setupReloadSignal makes SIGUSR1 force a new run in watch mode
func setupReloadSignal(rerun func(string)) func() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, unix.SIGUSR1)
	go func() {
		for range sigChan {
			rerun("Manual reload triggered (SIGUSR1)")
		}
	}()
	return func() {
		signal.Stop(sigChan)
		close(sigChan)
	}
}
