// Package extension wires the build, launch, debug and terminal components
// into the single facade the command layer talks to.
package extension

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/adequator/vscode-makefile-tools/internal/build"
	"github.com/adequator/vscode-makefile-tools/internal/debugger"
	"github.com/adequator/vscode-makefile-tools/internal/events"
	"github.com/adequator/vscode-makefile-tools/internal/hostshell"
	"github.com/adequator/vscode-makefile-tools/internal/intellisense"
	"github.com/adequator/vscode-makefile-tools/internal/launch"
	"github.com/adequator/vscode-makefile-tools/internal/logging"
	"github.com/adequator/vscode-makefile-tools/internal/makefile"
	"github.com/adequator/vscode-makefile-tools/internal/preconfigure"
	"github.com/adequator/vscode-makefile-tools/internal/process"
	"github.com/adequator/vscode-makefile-tools/internal/settings"
	"github.com/adequator/vscode-makefile-tools/internal/terminal"
)

// ErrExtensionDisposed is returned by operations after Dispose.
var ErrExtensionDisposed = errors.New("extension is disposed")

// Extension is the facade over the build/launch glue layer.
type Extension struct {
	workspaceRoot  string
	userConfigPath string
	watch          bool

	store          *settings.Store
	bus            *events.Bus
	channel        logging.OutputChannel
	logger         *logging.Logger
	runner         process.Runner
	shell          hostshell.Shell
	sink           intellisense.UpdateSink
	debugHost      debugger.Host
	terminalOutput func(data []byte)

	driver    *build.Driver
	resolver  *intellisense.Resolver
	preconf   *preconfigure.Runner
	selector  *debugger.Selector
	launcher  *debugger.Launcher
	terminals *terminal.Manager

	makefileWatcher  *settings.FileWatcher
	unsubscribeStore func()
	disposed         atomic.Bool
}

// Option configures an Extension.
type Option func(*Extension)

// WithWorkspaceRoot sets the workspace root directory.
func WithWorkspaceRoot(root string) Option {
	return func(e *Extension) {
		e.workspaceRoot = root
	}
}

// WithUserConfigPath sets the user-level config file location.
func WithUserConfigPath(path string) Option {
	return func(e *Extension) {
		e.userConfigPath = path
	}
}

// WithWatch enables live reload of settings files and makefile change
// events.
func WithWatch(enable bool) Option {
	return func(e *Extension) {
		e.watch = enable
	}
}

// WithStore sets a preconfigured settings store.
func WithStore(s *settings.Store) Option {
	return func(e *Extension) {
		e.store = s
	}
}

// WithRunner sets the process runner all operations spawn through.
func WithRunner(r process.Runner) Option {
	return func(e *Extension) {
		e.runner = r
	}
}

// WithShell sets the host shell conventions.
func WithShell(s hostshell.Shell) Option {
	return func(e *Extension) {
		e.shell = s
	}
}

// WithChannel sets the output channel for build output and user-facing
// messages.
func WithChannel(ch logging.OutputChannel) Option {
	return func(e *Extension) {
		e.channel = ch
	}
}

// WithLogger sets the diagnostic logger.
func WithLogger(l *logging.Logger) Option {
	return func(e *Extension) {
		e.logger = l
	}
}

// WithUpdateSink sets the consumer of build output for code assistance.
func WithUpdateSink(sink intellisense.UpdateSink) Option {
	return func(e *Extension) {
		e.sink = sink
	}
}

// WithDebugHost sets the debug session host.
func WithDebugHost(h debugger.Host) Option {
	return func(e *Extension) {
		e.debugHost = h
	}
}

// WithTerminalOutput mirrors raw launch terminal output to fn.
func WithTerminalOutput(fn func(data []byte)) Option {
	return func(e *Extension) {
		e.terminalOutput = fn
	}
}

// New creates the extension facade. Call Load before using operations that
// read settings.
func New(opts ...Option) *Extension {
	e := &Extension{
		bus:     events.NewBus(),
		channel: logging.Nop(),
		logger:  logging.Default(),
		runner:  process.NewRunner(),
		shell:   hostshell.Current(),
		sink:    intellisense.UpdateSinkFunc(func(string) {}),
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.store == nil {
		storeOpts := []settings.Option{
			settings.WithWorkspaceRoot(e.workspaceRoot),
			settings.WithWatcher(e.watch),
			settings.WithLogger(e.logger.WithComponent("settings")),
		}
		if e.userConfigPath != "" {
			storeOpts = append(storeOpts, settings.WithUserConfigPath(e.userConfigPath))
		}
		e.store = settings.NewStore(storeOpts...)
	}
	if e.debugHost == nil {
		e.debugHost = NewChannelDebugHost(e.channel)
	}

	e.driver = build.NewDriver(
		build.WithRunner(e.runner),
		build.WithChannel(e.channel),
		build.WithPublisher(e.bus),
		build.WithLogger(e.logger.WithComponent("build")),
	)
	e.resolver = intellisense.NewResolver(e.driver, e.sink,
		intellisense.WithChannel(e.channel),
		intellisense.WithLogger(e.logger.WithComponent("intellisense")),
	)
	e.preconf = preconfigure.NewRunner(
		preconfigure.WithRunner(e.runner),
		preconfigure.WithShell(e.shell),
		preconfigure.WithChannel(e.channel),
		preconfigure.WithPublisher(e.bus),
		preconfigure.WithLogger(e.logger.WithComponent("preconfigure")),
	)
	e.selector = debugger.NewSelector(
		debugger.WithShell(e.shell),
		debugger.WithLogger(e.logger.WithComponent("debugger")),
	)
	e.launcher = debugger.NewLauncher(e.debugHost,
		debugger.WithSelector(e.selector),
		debugger.WithChannel(e.channel),
		debugger.WithPublisher(e.bus),
		debugger.WithLauncherLogger(e.logger.WithComponent("debugger")),
	)
	terminalOpts := []terminal.ManagerOption{
		terminal.WithShell(e.shell),
		terminal.WithPublisher(e.bus),
		terminal.WithChannel(e.channel),
		terminal.WithLogger(e.logger.WithComponent("terminal")),
	}
	if e.terminalOutput != nil {
		terminalOpts = append(terminalOpts, terminal.WithOutput(e.terminalOutput))
	}
	e.terminals = terminal.NewManager(terminalOpts...)

	return e
}

// Load reads settings and starts change watching. The configured logging
// level takes effect here.
func (e *Extension) Load(ctx context.Context) error {
	if e.disposed.Load() {
		return ErrExtensionDisposed
	}

	if err := e.store.Load(ctx); err != nil {
		return err
	}

	if raw := e.store.Snapshot().LoggingLevel; raw != "" {
		e.logger.SetLevel(logging.ParseLogLevel(raw))
	}

	if e.unsubscribeStore == nil {
		e.unsubscribeStore = e.store.Subscribe(func(settings.Settings) {
			e.bus.Publish(events.SettingsChanged, map[string]any{
				"workspace": e.store.WorkspaceRoot(),
			})
		})
	}

	if e.watch && e.makefileWatcher == nil {
		e.watchMakefile()
	}

	return nil
}

// watchMakefile publishes makefile change events for the discovered
// makefile.
func (e *Extension) watchMakefile() {
	path, err := e.MakefilePath()
	if err != nil {
		e.logger.Debug("makefile watch skipped: %v", err)
		return
	}

	w, err := settings.NewFileWatcher()
	if err != nil {
		e.logger.Warn("makefile watcher unavailable: %v", err)
		return
	}
	if err := w.Watch(path); err != nil {
		e.logger.Warn("watch %s: %v", path, err)
		w.Close()
		return
	}
	w.OnChange(func(changed string) {
		e.bus.Publish(events.MakefileChanged, map[string]any{"path": changed})
	})
	e.makefileWatcher = w
}

// Bus returns the event bus for subscriptions.
func (e *Extension) Bus() *events.Bus {
	return e.bus
}

// Settings returns the current merged settings.
func (e *Extension) Settings() settings.Settings {
	return e.store.Snapshot()
}

// AssembleArgs builds the argument vector for a build invocation. Exposed
// for callers that construct command lines without running them.
func (e *Extension) AssembleArgs(target string, configuredArgs []string, dryRun bool, dryRunExtraFlags []string) []string {
	return build.AssembleArgs(target, configuredArgs, dryRun, dryRunExtraFlags)
}

// buildContext resolves the build context, overriding the target when one
// is given.
func (e *Extension) buildContext(target string) settings.BuildContext {
	bctx := e.store.BuildContext()
	if target != "" {
		bctx.Target = target
	}
	return bctx
}

// RunBuild runs the build tool for the given target, or the current target
// when empty. Build failures surface through the output channel and the
// result, not as errors.
func (e *Extension) RunBuild(ctx context.Context, target string) (build.Result, error) {
	if e.disposed.Load() {
		return build.Result{ExitCode: -1}, ErrExtensionDisposed
	}
	return e.driver.RunBuild(ctx, e.buildContext(target)), nil
}

// RunDryRun runs a dry-run build for the given target, or the current
// target when empty.
func (e *Extension) RunDryRun(ctx context.Context, target string) (build.DryRunResult, error) {
	if e.disposed.Load() {
		return build.DryRunResult{Result: build.Result{ExitCode: -1}}, ErrExtensionDisposed
	}
	return e.driver.RunDryRun(ctx, e.buildContext(target)), nil
}

// ResolveIntelliSenseSource obtains build output for code assistance from
// the configured build log when present and non-empty, otherwise from a
// fresh dry-run, and feeds it to the update sink.
func (e *Extension) ResolveIntelliSenseSource(ctx context.Context) (intellisense.Resolution, error) {
	if e.disposed.Load() {
		return intellisense.Resolution{}, ErrExtensionDisposed
	}
	return e.resolver.Resolve(ctx, e.store.BuildContext()), nil
}

// RunPreConfigure runs the configured pre-configure script. A missing or
// nonexistent script path returns a precondition error with no process
// spawned.
func (e *Extension) RunPreConfigure(ctx context.Context) (preconfigure.Result, error) {
	if e.disposed.Load() {
		return preconfigure.Result{ExitCode: -1}, ErrExtensionDisposed
	}
	return e.preconf.Run(ctx, e.store.PreConfigureScript(), e.store.WorkspaceRoot())
}

// SelectDebugger infers the debugger backend and executable for a compiler.
func (e *Extension) SelectDebugger(compilerPath string) debugger.Choice {
	return e.selector.Select(compilerPath)
}

// StartDebugSession starts debugging the selected launch target with a
// debugger inferred from the compiler.
func (e *Extension) StartDebugSession(ctx context.Context, compilerPath string) error {
	if e.disposed.Load() {
		return ErrExtensionDisposed
	}
	return e.launcher.StartDebugSession(ctx, e.store.LaunchContext(), compilerPath)
}

// BuildSessionRequest assembles the debug request without starting a
// session.
func (e *Extension) BuildSessionRequest(compilerPath string) (debugger.SessionRequest, error) {
	cfg, err := e.store.LaunchContext().Current()
	if err != nil {
		return debugger.SessionRequest{}, err
	}
	return debugger.BuildSessionRequest(e.selector.Select(compilerPath), cfg), nil
}

// LaunchTargetPath returns the selected launch binary path.
func (e *Extension) LaunchTargetPath() (string, error) {
	return e.store.LaunchContext().TargetPath()
}

// LaunchCurrentDir returns the working directory of the selected launch
// configuration.
func (e *Extension) LaunchCurrentDir() (string, error) {
	return e.store.LaunchContext().CurrentDir()
}

// LaunchTargetArgs returns the launch arguments.
func (e *Extension) LaunchTargetArgs() ([]string, error) {
	return e.store.LaunchContext().TargetArgs()
}

// LaunchTargetArgsConcat returns the launch arguments space-joined.
func (e *Extension) LaunchTargetArgsConcat() (string, error) {
	return e.store.LaunchContext().TargetArgsConcat()
}

// RunInTerminal runs the selected launch target in the reusable terminal.
func (e *Extension) RunInTerminal() error {
	if e.disposed.Load() {
		return ErrExtensionDisposed
	}
	return e.terminals.RunInTerminal(e.store.LaunchContext())
}

// Terminal returns the launch terminal manager for callers that need the
// live handle.
func (e *Extension) Terminal() *terminal.Manager {
	return e.terminals
}

// MakefilePath returns the makefile the build context resolves to.
func (e *Extension) MakefilePath() (string, error) {
	dir, override := e.store.MakefileLocation()
	return makefile.Discover(dir, override)
}

// Targets lists the build targets of the resolved makefile.
func (e *Extension) Targets() ([]makefile.Target, error) {
	path, err := e.MakefilePath()
	if err != nil {
		return nil, err
	}
	return makefile.ParseTargets(path)
}

// DefaultTarget returns the makefile's default goal.
func (e *Extension) DefaultTarget() (string, error) {
	path, err := e.MakefilePath()
	if err != nil {
		return "", err
	}
	return makefile.DefaultGoal(path)
}

// Tool resolves the build tool executable and its version.
func (e *Extension) Tool(ctx context.Context) (build.Tool, error) {
	bctx := e.store.BuildContext()
	return build.ResolveTool(ctx, e.runner, bctx.MakePath, bctx.WorkingDir)
}

// CurrentTarget returns the current build target, empty when unset.
func (e *Extension) CurrentTarget() string {
	return e.store.CurrentTarget()
}

// CurrentConfiguration returns the active configuration name, empty when
// unset.
func (e *Extension) CurrentConfiguration() string {
	return e.store.CurrentConfigurationName()
}

// CurrentLaunchConfiguration returns the persisted launch pick in its
// display form, empty when none is set.
func (e *Extension) CurrentLaunchConfiguration() string {
	return e.store.CurrentLaunchConfiguration()
}

// SetTarget sets and persists the current build target.
func (e *Extension) SetTarget(target string) error {
	if e.disposed.Load() {
		return ErrExtensionDisposed
	}
	return e.store.SetCurrentTarget(target)
}

// SetConfiguration sets and persists the active configuration.
func (e *Extension) SetConfiguration(name string) error {
	if e.disposed.Load() {
		return ErrExtensionDisposed
	}
	return e.store.SetCurrentConfiguration(name)
}

// SetLaunchConfiguration sets and persists the current launch
// configuration.
func (e *Extension) SetLaunchConfiguration(cfg launch.Configuration) error {
	if e.disposed.Load() {
		return ErrExtensionDisposed
	}
	return e.store.SetCurrentLaunchConfiguration(cfg)
}

// Dispose releases the terminal, watchers and subscriptions. Safe to call
// more than once.
func (e *Extension) Dispose() error {
	if e.disposed.Swap(true) {
		return nil
	}

	if e.terminals != nil {
		e.terminals.Dispose()
	}
	if e.makefileWatcher != nil {
		e.makefileWatcher.Close()
		e.makefileWatcher = nil
	}
	if e.unsubscribeStore != nil {
		e.unsubscribeStore()
		e.unsubscribeStore = nil
	}
	if e.store != nil {
		e.store.Close()
	}
	return nil
}
