//go:build darwin

package terminal

import (
	"os"
	"os/exec"
	"syscall"
	"unsafe"

	"golang.org/x/sys/unix"
)

// TIOCPTYGNAME returns the slave path for a /dev/ptmx master.
// #define TIOCPTYGNAME _IOC(IOC_OUT, 't', 107, 128)
const ptyGrantName = 0x40807467

// startPTY starts a command on a new pseudo-terminal pair.
func startPTY(cmd *exec.Cmd, cols, rows uint16) (PTY, error) {
	master, err := os.OpenFile("/dev/ptmx", os.O_RDWR, 0)
	if err != nil {
		return nil, err
	}

	slavePath, err := ptsName(master)
	if err != nil {
		master.Close()
		return nil, err
	}

	slave, err := os.OpenFile(slavePath, os.O_RDWR, 0)
	if err != nil {
		master.Close()
		return nil, err
	}

	if err := setWinSize(master, cols, rows); err != nil {
		master.Close()
		slave.Close()
		return nil, err
	}

	// The slave side becomes the child's controlling terminal.
	cmd.Stdin = slave
	cmd.Stdout = slave
	cmd.Stderr = slave

	if cmd.SysProcAttr == nil {
		cmd.SysProcAttr = &syscall.SysProcAttr{}
	}
	cmd.SysProcAttr.Setsid = true
	cmd.SysProcAttr.Setctty = true

	if err := cmd.Start(); err != nil {
		master.Close()
		slave.Close()
		return nil, err
	}

	slave.Close()

	return &darwinPTY{master: master}, nil
}

// darwinPTY implements PTY over a /dev/ptmx master.
type darwinPTY struct {
	master *os.File
}

func (p *darwinPTY) Read(buf []byte) (int, error) {
	return p.master.Read(buf)
}

func (p *darwinPTY) Write(data []byte) (int, error) {
	return p.master.Write(data)
}

func (p *darwinPTY) Resize(cols, rows uint16) error {
	return setWinSize(p.master, cols, rows)
}

func (p *darwinPTY) Close() error {
	return p.master.Close()
}

// ptsName returns the slave path for a master descriptor.
func ptsName(master *os.File) (string, error) {
	var name [128]byte
	_, _, errno := syscall.Syscall(
		syscall.SYS_IOCTL,
		master.Fd(),
		ptyGrantName,
		uintptr(unsafe.Pointer(&name[0])),
	)
	if errno != 0 {
		return "", errno
	}

	var end int
	for end = 0; end < len(name) && name[end] != 0; end++ {
	}
	return string(name[:end]), nil
}

// setWinSize sets the terminal window size.
func setWinSize(f *os.File, cols, rows uint16) error {
	return unix.IoctlSetWinsize(int(f.Fd()), unix.TIOCSWINSZ, &unix.Winsize{
		Row: rows,
		Col: cols,
	})
}
