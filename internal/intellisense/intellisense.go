// Package intellisense decides where compiler information for code
// assistance comes from: a previously captured build log, or fresh dry-run
// output.
package intellisense

import (
	"context"
	"fmt"
	"os"

	"github.com/adequator/vscode-makefile-tools/internal/build"
	"github.com/adequator/vscode-makefile-tools/internal/logging"
	"github.com/adequator/vscode-makefile-tools/internal/settings"
)

// Source identifies where build output for parsing came from.
type Source int

const (
	// SourceNone means no output was obtained.
	SourceNone Source = iota

	// SourceBuildLog means a configured build log file was read.
	SourceBuildLog

	// SourceDryRun means a dry-run invocation produced the output.
	SourceDryRun
)

// String returns the source name.
func (s Source) String() string {
	switch s {
	case SourceBuildLog:
		return "build-log"
	case SourceDryRun:
		return "dry-run"
	default:
		return "none"
	}
}

// UpdateSink consumes raw build output text. Parsing it into compiler
// flags and include paths happens behind this interface.
type UpdateSink interface {
	UpdateProvider(buildOutput string)
}

// UpdateSinkFunc adapts a function to the UpdateSink interface.
type UpdateSinkFunc func(buildOutput string)

// UpdateProvider implements UpdateSink.
func (f UpdateSinkFunc) UpdateProvider(buildOutput string) {
	f(buildOutput)
}

// DryRunner runs dry-run builds. Satisfied by build.Driver.
type DryRunner interface {
	RunDryRun(ctx context.Context, bctx settings.BuildContext) build.DryRunResult
}

// FileReader provides the existence check and whole-file read the resolver
// needs for build logs.
type FileReader interface {
	ReadFile(path string) ([]byte, error)
	Stat(path string) (os.FileInfo, error)
}

// osReader reads from the local file system.
type osReader struct{}

func (osReader) ReadFile(path string) ([]byte, error)  { return os.ReadFile(path) }
func (osReader) Stat(path string) (os.FileInfo, error) { return os.Stat(path) }

// Resolution describes how build output was obtained.
type Resolution struct {
	// Source is where the output came from.
	Source Source

	// LogPath is the build log that was read, set only for SourceBuildLog.
	LogPath string

	// Degraded reports that a dry-run failed and the output may be
	// partial. Always false for SourceBuildLog.
	Degraded bool
}

// Resolver obtains build output text and feeds it to the update sink.
type Resolver struct {
	runner  DryRunner
	sink    UpdateSink
	reader  FileReader
	channel logging.OutputChannel
	logger  *logging.Logger
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithFileReader sets the file reader used for build logs.
func WithFileReader(r FileReader) ResolverOption {
	return func(res *Resolver) {
		res.reader = r
	}
}

// WithChannel sets the output channel for user-visible progress.
func WithChannel(ch logging.OutputChannel) ResolverOption {
	return func(res *Resolver) {
		res.channel = ch
	}
}

// WithLogger sets the diagnostic logger.
func WithLogger(l *logging.Logger) ResolverOption {
	return func(res *Resolver) {
		res.logger = l
	}
}

// NewResolver creates a resolver that runs dry-runs through runner and
// delivers output to sink.
func NewResolver(runner DryRunner, sink UpdateSink, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		runner:  runner,
		sink:    sink,
		reader:  osReader{},
		channel: logging.Nop(),
		logger:  logging.NullLogger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve obtains build output for the given context and hands it to the
// update sink. A configured, existing, non-empty build log wins and no
// dry-run is invoked; otherwise a dry-run supplies the output. Partial
// dry-run output is still delivered, with the resolution marked degraded.
func (r *Resolver) Resolve(ctx context.Context, bctx settings.BuildContext) Resolution {
	if text, ok := r.readBuildLog(bctx.BuildLogPath); ok {
		r.channel.Message(fmt.Sprintf("Parsing build log %s for code assistance.", bctx.BuildLogPath))
		r.sink.UpdateProvider(text)
		return Resolution{Source: SourceBuildLog, LogPath: bctx.BuildLogPath}
	}

	result := r.runner.RunDryRun(ctx, bctx)
	if !result.Started {
		return Resolution{Source: SourceDryRun, Degraded: true}
	}

	r.sink.UpdateProvider(result.Output)
	return Resolution{Source: SourceDryRun, Degraded: result.Degraded}
}

// readBuildLog returns the build log contents when the path is configured,
// the file exists and it is non-empty.
func (r *Resolver) readBuildLog(path string) (string, bool) {
	if path == "" {
		return "", false
	}
	info, err := r.reader.Stat(path)
	if err != nil || info.Size() == 0 {
		return "", false
	}
	data, err := r.reader.ReadFile(path)
	if err != nil {
		r.logger.Warn("read build log %s: %v", path, err)
		return "", false
	}
	return string(data), true
}
