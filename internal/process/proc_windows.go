//go:build windows

package process

import (
	"errors"
	"os/exec"
)

// setSysProcAttr is a no-op on Windows; there are no process groups to set
// up for the kill path used here.
func setSysProcAttr(cmd *exec.Cmd) {}

// killProcess kills the child process.
func killProcess(cmd *exec.Cmd) {
	if cmd.Process == nil {
		return
	}
	_ = cmd.Process.Kill()
}

// exitStatus decodes cmd.Wait's error into exit code and signal name.
// Windows has no termination signals; killed processes report exit code 1.
func exitStatus(waitErr error) (code int, signal string) {
	if waitErr == nil {
		return 0, ""
	}
	var exitErr *exec.ExitError
	if errors.As(waitErr, &exitErr) {
		return exitErr.ExitCode(), ""
	}
	return -1, ""
}
