package terminal

import "errors"

// Sentinel errors for the terminal package.
var (
	// ErrTerminalClosed is returned when writing to a closed terminal.
	ErrTerminalClosed = errors.New("terminal is closed")

	// ErrInvalidSize is returned when a resize dimension is not positive.
	ErrInvalidSize = errors.New("invalid terminal size")

	// ErrShellNotFound is returned when the shell executable is not found.
	ErrShellNotFound = errors.New("shell not found")

	// ErrManagerDisposed is returned when running a command after Dispose.
	ErrManagerDisposed = errors.New("terminal manager is disposed")
)
