package terminal

import "os/exec"

// PTY is the terminal device a shell runs inside. On Unix platforms it is a
// real pseudo-terminal; on Windows it is a pipe pair standing in for one.
type PTY interface {
	// Read reads shell output.
	Read(p []byte) (n int, err error)

	// Write writes input to the shell.
	Write(p []byte) (n int, err error)

	// Resize changes the terminal size.
	Resize(cols, rows uint16) error

	// Close closes the device.
	Close() error
}

// StartPTY starts the command attached to a new terminal device.
func StartPTY(cmd *exec.Cmd, cols, rows uint16) (PTY, error) {
	return startPTY(cmd, cols, rows)
}
