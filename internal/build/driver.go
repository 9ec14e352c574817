package build

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/adequator/vscode-makefile-tools/internal/events"
	"github.com/adequator/vscode-makefile-tools/internal/logging"
	"github.com/adequator/vscode-makefile-tools/internal/process"
	"github.com/adequator/vscode-makefile-tools/internal/settings"
)

// WriteFileFunc persists dry-run output to the cache location.
type WriteFileFunc func(path string, data []byte) error

// defaultWriteFile writes the cache file, creating parent directories.
func defaultWriteFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Result describes a completed build invocation.
type Result struct {
	// OperationID identifies the invocation in logs and events.
	OperationID string

	// Started reports whether the process spawned. False means a
	// spawn-time failure, already logged.
	Started bool

	// ExitCode is the process exit code. -1 when not started or when the
	// process was terminated by a signal.
	ExitCode int

	// Signal is the termination signal name, empty on normal exit.
	Signal string
}

// Succeeded reports whether the build ran and exited zero.
func (r Result) Succeeded() bool {
	return r.Started && r.ExitCode == 0 && r.Signal == ""
}

// DryRunResult describes a completed dry-run invocation.
type DryRunResult struct {
	Result

	// Output is the captured stdout, available even on failure.
	Output string

	// CachePath is where the output was persisted, empty when the process
	// never spawned.
	CachePath string

	// Degraded reports that the dry-run failed and downstream consumers of
	// its output may be working from partial data.
	Degraded bool
}

// Driver runs build and dry-run invocations.
//
// Process and IO failures never escape the public operations; they are
// logged, and for dry-runs additionally reported through the Degraded flag
// and a published event.
type Driver struct {
	runner    process.Runner
	channel   logging.OutputChannel
	events    events.Publisher
	logger    *logging.Logger
	writeFile WriteFileFunc
}

// DriverOption configures a Driver.
type DriverOption func(*Driver)

// WithRunner sets the process runner.
func WithRunner(r process.Runner) DriverOption {
	return func(d *Driver) {
		d.runner = r
	}
}

// WithChannel sets the output channel build output streams to.
func WithChannel(ch logging.OutputChannel) DriverOption {
	return func(d *Driver) {
		d.channel = ch
	}
}

// WithPublisher sets the event publisher.
func WithPublisher(p events.Publisher) DriverOption {
	return func(d *Driver) {
		d.events = p
	}
}

// WithLogger sets the diagnostic logger.
func WithLogger(l *logging.Logger) DriverOption {
	return func(d *Driver) {
		d.logger = l
	}
}

// WithWriteFile sets the function that persists dry-run output.
func WithWriteFile(fn WriteFileFunc) DriverOption {
	return func(d *Driver) {
		d.writeFile = fn
	}
}

// NewDriver creates a build driver.
func NewDriver(opts ...DriverOption) *Driver {
	d := &Driver{
		runner:    process.NewRunner(),
		channel:   logging.Nop(),
		events:    events.Nop(),
		logger:    logging.NullLogger,
		writeFile: defaultWriteFile,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// RunBuild assembles the build command line and runs it to completion,
// streaming output fragments to the channel as they arrive. Failures are
// reported through the channel and the result, never as an error.
func (d *Driver) RunBuild(ctx context.Context, bctx settings.BuildContext) Result {
	result := Result{OperationID: uuid.NewString(), ExitCode: -1}
	args := AssembleArgs(bctx.Target, bctx.ConfiguredArgs, false, nil)

	d.channel.Message(fmt.Sprintf("Building target %s with command: %s",
		describeTarget(bctx.Target), CommandLine(bctx.MakePath, args)))
	d.events.Publish(events.BuildStarted, map[string]any{
		"operation_id": result.OperationID,
		"target":       bctx.Target,
		"dry_run":      false,
	})

	outcome, err := d.runner.Run(ctx, process.Spec{
		Command:  bctx.MakePath,
		Args:     args,
		Dir:      bctx.WorkingDir,
		OnStdout: d.channel.MessageNoCR,
		OnStderr: d.channel.MessageNoCR,
	})
	if err != nil {
		d.channel.Message(fmt.Sprintf("Failed to launch %s: %v", bctx.MakePath, err))
		d.logger.Error("build spawn failed: %v", err)
		d.publishCompleted(result, bctx.Target)
		return result
	}

	result.Started = true
	result.ExitCode = outcome.ExitCode
	result.Signal = outcome.Signal

	switch {
	case result.Succeeded():
		d.channel.Message(fmt.Sprintf("Target %s built successfully.", describeTarget(bctx.Target)))
	case outcome.Signal != "":
		d.channel.Message(fmt.Sprintf("Build terminated by signal %s.", outcome.Signal))
	default:
		d.channel.Message(fmt.Sprintf("Build of target %s failed with exit code %d.",
			describeTarget(bctx.Target), outcome.ExitCode))
	}

	d.publishCompleted(result, bctx.Target)
	return result
}

// RunDryRun assembles the dry-run command line and runs it to completion.
// Captured stdout is persisted to the cache location whenever the process
// spawned, regardless of exit code, since partial output still feeds
// downstream parsing. A failed dry-run marks the result degraded and
// publishes a single degraded event.
func (d *Driver) RunDryRun(ctx context.Context, bctx settings.BuildContext) DryRunResult {
	result := DryRunResult{Result: Result{OperationID: uuid.NewString(), ExitCode: -1}}
	args := AssembleArgs(bctx.Target, bctx.ConfiguredArgs, true, bctx.DryRunSwitches)

	d.channel.Message(fmt.Sprintf("Generating dry-run output with command: %s",
		CommandLine(bctx.MakePath, args)))
	d.events.Publish(events.BuildStarted, map[string]any{
		"operation_id": result.OperationID,
		"target":       bctx.Target,
		"dry_run":      true,
	})

	outcome, err := d.runner.Run(ctx, process.Spec{
		Command:  bctx.MakePath,
		Args:     args,
		Dir:      bctx.WorkingDir,
		OnStdout: d.channel.MessageNoCR,
		OnStderr: d.channel.MessageNoCR,
	})
	if err != nil {
		d.channel.Message(fmt.Sprintf("Failed to launch %s: %v", bctx.MakePath, err))
		d.logger.Error("dry-run spawn failed: %v", err)
		result.Degraded = true
		d.publishDegraded(result)
		d.publishCompleted(result.Result, bctx.Target)
		return result
	}

	result.Started = true
	result.ExitCode = outcome.ExitCode
	result.Signal = outcome.Signal
	result.Output = outcome.Stdout
	result.CachePath = bctx.CachePath

	if bctx.CachePath != "" {
		if err := d.writeFile(bctx.CachePath, []byte(outcome.Stdout)); err != nil {
			d.logger.Error("write dry-run cache %s: %v", bctx.CachePath, err)
			result.CachePath = ""
		}
	}

	if result.Succeeded() {
		d.channel.Message("Dry-run output generated successfully.")
	} else {
		d.channel.Message(fmt.Sprintf("Dry-run failed with exit code %d. Stderr: %s",
			outcome.ExitCode, outcome.Stderr))
		result.Degraded = true
		d.publishDegraded(result)
	}

	d.publishCompleted(result.Result, bctx.Target)
	return result
}

// publishCompleted emits the completion event for an invocation.
func (d *Driver) publishCompleted(r Result, target string) {
	d.events.Publish(events.BuildCompleted, map[string]any{
		"operation_id": r.OperationID,
		"target":       target,
		"started":      r.Started,
		"exit_code":    r.ExitCode,
		"signal":       r.Signal,
	})
}

// publishDegraded emits the dry-run degraded event.
func (d *Driver) publishDegraded(r DryRunResult) {
	d.events.Publish(events.BuildDryRunDegraded, map[string]any{
		"operation_id": r.OperationID,
		"exit_code":    r.ExitCode,
	})
}

// describeTarget names a target for log output.
func describeTarget(target string) string {
	if target == "" {
		return "(default)"
	}
	return target
}
