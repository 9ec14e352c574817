//go:build windows

package terminal

import (
	"os"
	"os/exec"
)

// startPTY starts a command behind a pipe pair. Windows has no /dev/ptmx
// equivalent here, so the shell runs without a console device; interactive
// programs that probe for one degrade to line mode.
func startPTY(cmd *exec.Cmd, cols, rows uint16) (PTY, error) {
	outR, outW, err := os.Pipe()
	if err != nil {
		return nil, err
	}
	inR, inW, err := os.Pipe()
	if err != nil {
		outR.Close()
		outW.Close()
		return nil, err
	}

	cmd.Stdin = inR
	cmd.Stdout = outW
	cmd.Stderr = outW

	if err := cmd.Start(); err != nil {
		outR.Close()
		outW.Close()
		inR.Close()
		inW.Close()
		return nil, err
	}

	// The child holds its ends; the parent's copies must close so reads
	// see EOF when the child exits.
	outW.Close()
	inR.Close()

	return &pipePTY{in: inW, out: outR}, nil
}

// pipePTY implements PTY over plain pipes.
type pipePTY struct {
	in  *os.File
	out *os.File
}

func (p *pipePTY) Read(buf []byte) (int, error) {
	return p.out.Read(buf)
}

func (p *pipePTY) Write(data []byte) (int, error) {
	return p.in.Write(data)
}

// Resize is a no-op without a console device.
func (p *pipePTY) Resize(cols, rows uint16) error {
	return nil
}

func (p *pipePTY) Close() error {
	inErr := p.in.Close()
	outErr := p.out.Close()
	if inErr != nil {
		return inErr
	}
	return outErr
}
