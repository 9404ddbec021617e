//go:build !linux && !darwin && !freebsd && !netbsd && !openbsd

package main

// setupReloadSignal does nothing where SIGUSR1 is not available
func setupReloadSignal(rerun func(string)) func() {
	return func() {}
}
