package debugger

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/adequator/vscode-makefile-tools/internal/events"
	"github.com/adequator/vscode-makefile-tools/internal/launch"
	"github.com/adequator/vscode-makefile-tools/internal/logging"
)

// Debug adapter types understood by the debug host.
const (
	// AdapterCppdbg is the machine-interface adapter driving gdb or lldb.
	AdapterCppdbg = "cppdbg"

	// AdapterCppvsdbg is the native vendor debugger adapter.
	AdapterCppvsdbg = "cppvsdbg"
)

// SessionRequest describes a debug session to the debug host. Field names
// follow the C/C++ debug adapter configuration schema.
type SessionRequest struct {
	Name           string   `json:"name"`
	Type           string   `json:"type"`
	Request        string   `json:"request"`
	Program        string   `json:"program"`
	Args           []string `json:"args,omitempty"`
	Cwd            string   `json:"cwd"`
	StopAtEntry    bool     `json:"stopAtEntry"`
	MIMode         string   `json:"MIMode,omitempty"`
	MIDebuggerPath string   `json:"miDebuggerPath,omitempty"`
}

// Host starts debug sessions in the editor front end.
type Host interface {
	StartDebugging(ctx context.Context, req SessionRequest) error
}

// HostFunc adapts a function to the Host interface.
type HostFunc func(ctx context.Context, req SessionRequest) error

// StartDebugging implements Host.
func (f HostFunc) StartDebugging(ctx context.Context, req SessionRequest) error {
	return f(ctx, req)
}

// Launcher selects a debugger and starts debug sessions.
type Launcher struct {
	selector *Selector
	host     Host
	channel  logging.OutputChannel
	events   events.Publisher
	logger   *logging.Logger
}

// LauncherOption configures a Launcher.
type LauncherOption func(*Launcher)

// WithSelector sets the debugger selector.
func WithSelector(sel *Selector) LauncherOption {
	return func(l *Launcher) {
		l.selector = sel
	}
}

// WithChannel sets the output channel for user-facing messages.
func WithChannel(ch logging.OutputChannel) LauncherOption {
	return func(l *Launcher) {
		l.channel = ch
	}
}

// WithPublisher sets the event publisher.
func WithPublisher(p events.Publisher) LauncherOption {
	return func(l *Launcher) {
		l.events = p
	}
}

// WithLauncherLogger sets the diagnostic logger.
func WithLauncherLogger(lg *logging.Logger) LauncherOption {
	return func(l *Launcher) {
		l.logger = lg
	}
}

// NewLauncher creates a debug session launcher that delegates to host.
func NewLauncher(host Host, opts ...LauncherOption) *Launcher {
	l := &Launcher{
		selector: NewSelector(),
		host:     host,
		channel:  logging.Nop(),
		events:   events.Nop(),
		logger:   logging.NullLogger,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// BuildSessionRequest assembles the debug request for a launch target and a
// selected debugger.
func BuildSessionRequest(choice Choice, cfg launch.Configuration) SessionRequest {
	req := SessionRequest{
		Name:    "Debug " + filepath.Base(cfg.BinaryPath),
		Request: "launch",
		Program: cfg.BinaryPath,
		Cwd:     cfg.CWD,
	}
	if req.Cwd == "" {
		req.Cwd = filepath.Dir(cfg.BinaryPath)
	}
	if len(cfg.BinaryArgs) > 0 {
		req.Args = make([]string, len(cfg.BinaryArgs))
		copy(req.Args, cfg.BinaryArgs)
	}

	if choice.Backend == BackendMSVC {
		req.Type = AdapterCppvsdbg
	} else {
		req.Type = AdapterCppdbg
		req.MIMode = choice.Backend.String()
		req.MIDebuggerPath = choice.DebuggerPath
	}
	return req
}

// StartDebugSession selects a debugger for the compiler and asks the host to
// debug the currently selected launch target. A missing launch configuration
// is returned as an error before any selection happens; host failures are
// logged but not propagated.
func (l *Launcher) StartDebugSession(ctx context.Context, lctx launch.Context, compilerPath string) error {
	cfg, err := lctx.Current()
	if err != nil {
		l.channel.Message("Cannot start debugging: no launch configuration is set. " +
			"Select one of the launch configurations defined in the project settings first.")
		l.logger.Info("debug aborted: %v; define launchConfigurations in the project settings "+
			"and select one to enable debugging", err)
		return err
	}

	choice := l.selector.Select(compilerPath)
	req := BuildSessionRequest(choice, cfg)
	l.logger.Debug("debug request: backend=%s program=%s", choice.Backend, req.Program)

	if err := l.host.StartDebugging(ctx, req); err != nil {
		l.channel.Message(fmt.Sprintf("Failed to start debug session: %v", err))
		l.logger.Error("debug host error: %v", err)
		return nil
	}

	l.events.Publish(events.DebugSessionStarted, map[string]any{
		"program": req.Program,
		"backend": choice.Backend.String(),
		"type":    req.Type,
	})
	return nil
}
