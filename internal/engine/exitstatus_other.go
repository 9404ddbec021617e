// Completion: 100% - Platform-specific module complete
//go:build !linux && !darwin && !freebsd && !netbsd && !openbsd

package engine

import (
	"errors"
	"os/exec"
)

// UnpackExitCode turns the error from running a child process into the exit
// code the caller should return.
func UnpackExitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return 1
}
