// Package preconfigure runs the optional environment setup script that
// prepares a workspace before configure and build operations.
package preconfigure

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/adequator/vscode-makefile-tools/internal/events"
	"github.com/adequator/vscode-makefile-tools/internal/hostshell"
	"github.com/adequator/vscode-makefile-tools/internal/logging"
	"github.com/adequator/vscode-makefile-tools/internal/process"
)

// Pre-configure precondition errors. Both mean no process was spawned.
var (
	// ErrNoScript indicates no pre-configure script is configured.
	ErrNoScript = errors.New("no pre-configure script is configured")

	// ErrScriptNotFound indicates the configured script path does not exist.
	ErrScriptNotFound = errors.New("pre-configure script not found")
)

// ExistsFunc reports whether a path exists on disk.
type ExistsFunc func(path string) bool

// defaultExists checks the local file system.
func defaultExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Result describes a completed pre-configure invocation.
type Result struct {
	// Started reports whether the script process spawned.
	Started bool

	// ExitCode is the script exit code. -1 when not started.
	ExitCode int
}

// Succeeded reports whether the script ran and exited zero.
func (r Result) Succeeded() bool {
	return r.Started && r.ExitCode == 0
}

// Runner executes the pre-configure script through the host shell. The
// script is sourced rather than executed directly, so environment changes it
// makes apply to the commands it runs.
type Runner struct {
	runner  process.Runner
	shell   hostshell.Shell
	exists  ExistsFunc
	channel logging.OutputChannel
	events  events.Publisher
	logger  *logging.Logger
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithRunner sets the process runner.
func WithRunner(r process.Runner) RunnerOption {
	return func(p *Runner) {
		p.runner = r
	}
}

// WithShell sets the host shell conventions.
func WithShell(s hostshell.Shell) RunnerOption {
	return func(p *Runner) {
		p.shell = s
	}
}

// WithExists sets the path existence check.
func WithExists(fn ExistsFunc) RunnerOption {
	return func(p *Runner) {
		p.exists = fn
	}
}

// WithChannel sets the output channel script output streams to.
func WithChannel(ch logging.OutputChannel) RunnerOption {
	return func(p *Runner) {
		p.channel = ch
	}
}

// WithPublisher sets the event publisher.
func WithPublisher(pub events.Publisher) RunnerOption {
	return func(p *Runner) {
		p.events = pub
	}
}

// WithLogger sets the diagnostic logger.
func WithLogger(l *logging.Logger) RunnerOption {
	return func(p *Runner) {
		p.logger = l
	}
}

// NewRunner creates a pre-configure runner.
func NewRunner(opts ...RunnerOption) *Runner {
	p := &Runner{
		runner:  process.NewRunner(),
		shell:   hostshell.Current(),
		exists:  defaultExists,
		channel: logging.Nop(),
		events:  events.Nop(),
		logger:  logging.NullLogger,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run executes the pre-configure script and streams its output to the
// channel. A missing script path or a path that does not exist returns a
// precondition error before any process is spawned. Process failures are
// logged and reflected in the result, never returned as errors.
func (p *Runner) Run(ctx context.Context, scriptPath, workingDir string) (Result, error) {
	result := Result{ExitCode: -1}

	if scriptPath == "" {
		p.logger.Info("pre-configure requested with no script configured")
		return result, ErrNoScript
	}
	if !p.exists(scriptPath) {
		p.logger.Info("pre-configure script missing: %s", scriptPath)
		return result, fmt.Errorf("%w: %s", ErrScriptNotFound, scriptPath)
	}

	command, args := p.shell.ScriptInvocation(scriptPath)
	p.channel.Message(fmt.Sprintf("Pre-configuring: %s", scriptPath))
	p.logger.Debug("pre-configure command: %s %v", command, args)

	outcome, err := p.runner.Run(ctx, process.Spec{
		Command:  command,
		Args:     args,
		Dir:      workingDir,
		OnStdout: p.channel.MessageNoCR,
		OnStderr: p.channel.MessageNoCR,
	})
	if err != nil {
		p.channel.Message(fmt.Sprintf("Failed to launch pre-configure script: %v", err))
		p.logger.Error("pre-configure spawn failed: %v", err)
		p.publishCompleted(result, scriptPath)
		return result, nil
	}

	result.Started = true
	result.ExitCode = outcome.ExitCode

	if result.Succeeded() {
		p.channel.Message("Pre-configure succeeded.")
	} else {
		p.channel.Message(fmt.Sprintf("Pre-configure failed with exit code %d. Stderr: %s",
			outcome.ExitCode, outcome.Stderr))
	}

	p.publishCompleted(result, scriptPath)
	return result, nil
}

// publishCompleted emits the pre-configure completion event.
func (p *Runner) publishCompleted(r Result, scriptPath string) {
	p.events.Publish(events.PreconfigureDone, map[string]any{
		"script":    scriptPath,
		"started":   r.Started,
		"exit_code": r.ExitCode,
	})
}
