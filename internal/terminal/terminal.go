// Package terminal provides the reusable shell terminal that launch targets
// run in.
//
// The package keeps a single terminal alive across runs: it is created
// lazily on first use, reused while its shell lives, and recreated after the
// shell exits. Output is pushed to a callback; there is no screen model, the
// front end owns rendering.
package terminal

import (
	"fmt"
	"os"
	"os/exec"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// readBufferSize is the chunk size for shell output reads.
const readBufferSize = 4096

// Terminal is a shell running on a terminal device.
type Terminal struct {
	id   string
	name string

	pty PTY
	cmd *exec.Cmd

	done      chan struct{}
	exitCode  atomic.Int32
	closed    atomic.Bool
	closeOnce sync.Once

	onOutput func(data []byte)
	onClose  func()
}

// Options configures a new terminal.
type Options struct {
	// Name is a human-readable name for the terminal.
	Name string

	// Shell is the shell executable. Defaults to the platform shell.
	Shell string

	// Args are additional arguments to pass to the shell.
	Args []string

	// Env are additional environment variables in KEY=VALUE form.
	Env []string

	// WorkDir is the working directory for the shell.
	WorkDir string

	// Cols is the number of columns (default 80).
	Cols int

	// Rows is the number of rows (default 24).
	Rows int

	// OnOutput is called with raw output chunks as they arrive.
	OnOutput func(data []byte)

	// OnClose is called exactly once when the terminal is done, whether
	// closed by Close or because the shell exited on its own.
	OnClose func()
}

// DefaultShell returns the platform shell executable for the given GOOS.
func DefaultShell(goos string) string {
	if goos == "windows" {
		if comspec := os.Getenv("ComSpec"); comspec != "" {
			return comspec
		}
		return "cmd"
	}
	if shell := os.Getenv("SHELL"); shell != "" {
		return shell
	}
	return "/bin/sh"
}

// newTerminal starts a shell on a fresh terminal device.
func newTerminal(goos string, opts Options) (*Terminal, error) {
	if opts.Shell == "" {
		opts.Shell = DefaultShell(goos)
	}
	if opts.Cols <= 0 {
		opts.Cols = 80
	}
	if opts.Rows <= 0 {
		opts.Rows = 24
	}
	if opts.Name == "" {
		opts.Name = "terminal"
	}

	if _, err := exec.LookPath(opts.Shell); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrShellNotFound, opts.Shell)
	}

	args := opts.Args
	if goos != "windows" {
		// Login shell so the user's profile applies to launched targets.
		args = append([]string{"-l"}, opts.Args...)
	}
	cmd := exec.Command(opts.Shell, args...)
	cmd.Dir = opts.WorkDir
	cmd.Env = append(os.Environ(), opts.Env...)
	cmd.Env = append(cmd.Env, "TERM=xterm-256color")

	pty, err := StartPTY(cmd, uint16(opts.Cols), uint16(opts.Rows))
	if err != nil {
		return nil, fmt.Errorf("start terminal: %w", err)
	}

	t := &Terminal{
		id:       uuid.New().String(),
		name:     opts.Name,
		pty:      pty,
		cmd:      cmd,
		done:     make(chan struct{}),
		onOutput: opts.OnOutput,
		onClose:  opts.OnClose,
	}
	t.exitCode.Store(-1)

	go t.readLoop()

	return t, nil
}

// ID returns the terminal's unique identifier.
func (t *Terminal) ID() string {
	return t.id
}

// Name returns the terminal's display name.
func (t *Terminal) Name() string {
	return t.name
}

// Write sends input to the shell.
func (t *Terminal) Write(data []byte) (int, error) {
	if t.closed.Load() {
		return 0, ErrTerminalClosed
	}
	return t.pty.Write(data)
}

// WriteString sends a string to the shell.
func (t *Terminal) WriteString(s string) (int, error) {
	return t.Write([]byte(s))
}

// Resize changes the terminal size.
func (t *Terminal) Resize(cols, rows int) error {
	if t.closed.Load() {
		return ErrTerminalClosed
	}
	if cols < 1 || rows < 1 {
		return ErrInvalidSize
	}
	if err := t.pty.Resize(uint16(cols), uint16(rows)); err != nil {
		return fmt.Errorf("resize terminal: %w", err)
	}
	return nil
}

// Close terminates the shell and waits for the terminal to finish. Safe to
// call more than once.
func (t *Terminal) Close() error {
	if !t.closed.Swap(true) {
		if t.cmd.Process != nil {
			t.cmd.Process.Kill()
		}
		t.pty.Close()
	}
	<-t.done
	return nil
}

// Done returns a channel closed when the terminal has fully shut down.
func (t *Terminal) Done() <-chan struct{} {
	return t.done
}

// ExitCode returns the shell exit code, -1 while still running.
func (t *Terminal) ExitCode() int {
	return int(t.exitCode.Load())
}

// IsRunning reports whether the terminal is still usable.
func (t *Terminal) IsRunning() bool {
	return !t.closed.Load()
}

// PID returns the shell process ID, -1 when not started.
func (t *Terminal) PID() int {
	if t.cmd.Process == nil {
		return -1
	}
	return t.cmd.Process.Pid
}

// readLoop pumps shell output to the callback until the device is done,
// then reaps the process and fires the close callback. The device read
// fails once the shell exits and releases its side, so a shell that exits
// on its own ends the loop without any Close call.
func (t *Terminal) readLoop() {
	buf := make([]byte, readBufferSize)
	for {
		n, err := t.pty.Read(buf)
		if n > 0 && t.onOutput != nil {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			t.onOutput(chunk)
		}
		if err != nil {
			break
		}
	}

	if t.cmd.Process != nil {
		state, _ := t.cmd.Process.Wait()
		if state != nil {
			t.exitCode.Store(int32(state.ExitCode()))
		}
	}

	t.closed.Store(true)
	t.pty.Close()

	// The close callback completes before Done unblocks, so a caller
	// returning from Close observes any handle cleanup the callback does.
	t.closeOnce.Do(func() {
		if t.onClose != nil {
			t.onClose()
		}
	})
	close(t.done)
}
