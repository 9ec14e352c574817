// Package process spawns external commands and streams their output.
//
// The contract is callback-based: stdout and stderr fragments are pushed to
// the caller as they arrive, and Run returns only after every fragment
// callback for the process has completed.
package process

import (
	"context"
	"fmt"
	"os/exec"
	"sync"
)

// readBufferSize is the chunk size for output streaming.
const readBufferSize = 4096

// Spec describes a process to spawn.
type Spec struct {
	// Command is the executable to run.
	Command string

	// Args are the command arguments.
	Args []string

	// Dir is the working directory. Empty means the caller's directory.
	Dir string

	// Env holds extra environment variables layered over the inherited
	// environment.
	Env map[string]string

	// OnStdout receives stdout fragments as they arrive. Fragments are raw
	// chunks, not lines; they carry their own line endings. May be nil.
	OnStdout func(fragment string)

	// OnStderr receives stderr fragments as they arrive. May be nil.
	OnStderr func(fragment string)
}

// Outcome describes a completed process.
type Outcome struct {
	// ExitCode is the process exit code. -1 when terminated by a signal.
	ExitCode int

	// Signal is the termination signal name ("SIGKILL", ...), empty when
	// the process exited normally.
	Signal string

	// Stdout is the full collected standard output.
	Stdout string

	// Stderr is the full collected standard error.
	Stderr string
}

// Runner spawns processes.
type Runner interface {
	// Run spawns the process described by spec and blocks until it
	// completes. All OnStdout/OnStderr callbacks fire before Run returns.
	//
	// A non-nil error is returned only for spawn-time failures (missing
	// executable, bad working directory); in that case no callback has
	// fired. Non-zero exits and signal terminations are reported through
	// the Outcome, not the error.
	Run(ctx context.Context, spec Spec) (Outcome, error)
}

// ExecRunner runs processes with os/exec.
type ExecRunner struct{}

// NewRunner creates the default process runner.
func NewRunner() *ExecRunner {
	return &ExecRunner{}
}

// Run implements Runner.
func (r *ExecRunner) Run(ctx context.Context, spec Spec) (Outcome, error) {
	cmd := exec.Command(spec.Command, spec.Args...)
	cmd.Dir = spec.Dir
	cmd.Env = BuildEnvironment(spec.Env)
	setSysProcAttr(cmd)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return Outcome{}, fmt.Errorf("create stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return Outcome{}, fmt.Errorf("create stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return Outcome{}, fmt.Errorf("spawn %s: %w", spec.Command, err)
	}

	var stdoutText, stderrText string
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		stdoutText = streamFragments(stdout, spec.OnStdout)
	}()
	go func() {
		defer wg.Done()
		stderrText = streamFragments(stderr, spec.OnStderr)
	}()

	// Kill the process group if the context is canceled before completion.
	procDone := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			killProcess(cmd)
		case <-procDone:
		}
	}()

	// All fragment callbacks complete before Wait observes the exit.
	wg.Wait()
	waitErr := cmd.Wait()
	close(procDone)

	outcome := Outcome{
		Stdout: stdoutText,
		Stderr: stderrText,
	}
	outcome.ExitCode, outcome.Signal = exitStatus(waitErr)
	return outcome, nil
}

// streamFragments reads raw chunks from r, forwarding each to cb and
// returning the accumulated text.
func streamFragments(r interface{ Read([]byte) (int, error) }, cb func(string)) string {
	var collected []byte
	buf := make([]byte, readBufferSize)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			fragment := string(buf[:n])
			collected = append(collected, buf[:n]...)
			if cb != nil {
				cb(fragment)
			}
		}
		if err != nil {
			return string(collected)
		}
	}
}
