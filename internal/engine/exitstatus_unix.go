// Completion: 100% - Platform-specific module complete
//go:build linux || darwin || freebsd || netbsd || openbsd

package engine

import (
	"errors"
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"
)

// UnpackExitCode turns the error from running a child process into the exit
// code the caller should return: the child's exit status when it exited, or
// the negated signal number when it was killed by a signal.
func UnpackExitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return 1
	}
	sys, ok := exitErr.Sys().(syscall.WaitStatus)
	if !ok {
		return exitErr.ExitCode()
	}
	ws := unix.WaitStatus(sys)
	switch {
	case ws.Signaled():
		return -int(ws.Signal())
	case ws.Exited():
		return ws.ExitStatus()
	}
	return 1
}
