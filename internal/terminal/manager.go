package terminal

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/adequator/vscode-makefile-tools/internal/events"
	"github.com/adequator/vscode-makefile-tools/internal/hostshell"
	"github.com/adequator/vscode-makefile-tools/internal/launch"
	"github.com/adequator/vscode-makefile-tools/internal/logging"
)

// launchTerminalName is the display name of the reusable launch terminal.
const launchTerminalName = "Make Launch"

// Manager owns the single reusable launch terminal.
//
// The terminal is created on first use and reused while its shell lives.
// When the shell exits, externally or through Dispose, the stored handle is
// cleared so the next run creates a fresh terminal instead of writing into
// a dead one.
type Manager struct {
	mu         sync.Mutex
	current    *Terminal
	currentGen uint64
	nextGen    uint64

	shell     hostshell.Shell
	shellPath string
	onOutput  func(data []byte)

	channel  logging.OutputChannel
	events   events.Publisher
	logger   *logging.Logger
	disposed atomic.Bool
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithShell sets the host shell conventions for quoting and platform
// defaults.
func WithShell(s hostshell.Shell) ManagerOption {
	return func(m *Manager) {
		m.shell = s
	}
}

// WithShellPath overrides the shell executable the terminal runs.
func WithShellPath(path string) ManagerOption {
	return func(m *Manager) {
		m.shellPath = path
	}
}

// WithOutput sets a callback receiving raw terminal output chunks.
func WithOutput(fn func(data []byte)) ManagerOption {
	return func(m *Manager) {
		m.onOutput = fn
	}
}

// WithChannel sets the output channel for user-facing messages.
func WithChannel(ch logging.OutputChannel) ManagerOption {
	return func(m *Manager) {
		m.channel = ch
	}
}

// WithPublisher sets the event publisher.
func WithPublisher(p events.Publisher) ManagerOption {
	return func(m *Manager) {
		m.events = p
	}
}

// WithLogger sets the diagnostic logger.
func WithLogger(l *logging.Logger) ManagerOption {
	return func(m *Manager) {
		m.logger = l
	}
}

// NewManager creates a launch terminal manager.
func NewManager(opts ...ManagerOption) *Manager {
	m := &Manager{
		shell:   hostshell.Current(),
		channel: logging.Nop(),
		events:  events.Nop(),
		logger:  logging.NullLogger,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Current returns the live terminal handle, nil when none exists.
func (m *Manager) Current() *Terminal {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current != nil && m.current.IsRunning() {
		return m.current
	}
	return nil
}

// RunInTerminal runs the selected launch target inside the reusable
// terminal, creating the terminal first if needed. A missing launch
// configuration is returned as an error; terminal spawn failures are
// logged and swallowed.
func (m *Manager) RunInTerminal(lctx launch.Context) error {
	if m.disposed.Load() {
		return ErrManagerDisposed
	}

	cfg, err := lctx.Current()
	if err != nil {
		m.channel.Message("Cannot run the target: no launch configuration is set. " +
			"Select one of the launch configurations defined in the project settings first.")
		m.logger.Info("run-in-terminal aborted: %v", err)
		return err
	}

	workDir, _ := lctx.CurrentDir()
	term, err := m.acquire(workDir)
	if err != nil {
		m.channel.Message(fmt.Sprintf("Failed to open the launch terminal: %v", err))
		m.logger.Error("launch terminal unavailable: %v", err)
		return nil
	}

	command := m.shell.QuoteArgs(append([]string{cfg.BinaryPath}, cfg.BinaryArgs...))
	if _, err := term.WriteString(command + lineEnding(m.shell.Platform())); err != nil {
		m.logger.Error("write to launch terminal: %v", err)
		return nil
	}

	m.logger.Debug("running in terminal: %s", command)
	return nil
}

// acquire returns the live terminal or creates a new one rooted at workDir.
func (m *Manager) acquire(workDir string) (*Terminal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current != nil && m.current.IsRunning() {
		return m.current, nil
	}
	m.current = nil

	gen := m.nextGen
	m.nextGen++

	term, err := newTerminal(m.shell.Platform(), Options{
		Name:     launchTerminalName,
		Shell:    m.shellPath,
		WorkDir:  workDir,
		OnOutput: m.onOutput,
		OnClose: func() {
			m.handleClosed(gen)
		},
	})
	if err != nil {
		return nil, err
	}

	m.current = term
	m.currentGen = gen

	m.events.Publish(events.TerminalCreated, map[string]any{
		"id":   term.ID(),
		"name": term.Name(),
	})
	m.logger.Debug("launch terminal created: %s", term.ID())

	return term, nil
}

// handleClosed clears the stored handle when the terminal of the given
// generation finishes. The generation guards against clearing a newer
// terminal that replaced the finished one.
func (m *Manager) handleClosed(gen uint64) {
	m.mu.Lock()
	var term *Terminal
	if m.currentGen == gen && m.current != nil {
		term = m.current
		m.current = nil
	}
	m.mu.Unlock()

	if term == nil {
		return
	}
	m.events.Publish(events.TerminalClosed, map[string]any{
		"id":        term.ID(),
		"name":      term.Name(),
		"exit_code": term.ExitCode(),
	})
	m.logger.Debug("launch terminal closed: %s (exit %d)", term.ID(), term.ExitCode())
}

// Dispose shuts the terminal down and releases the handle. Further runs
// fail with ErrManagerDisposed. Safe to call more than once.
func (m *Manager) Dispose() error {
	if m.disposed.Swap(true) {
		return nil
	}

	m.mu.Lock()
	term := m.current
	m.mu.Unlock()

	if term != nil {
		term.Close()
	}
	return nil
}

// lineEnding returns the command terminator for the platform's shell.
func lineEnding(goos string) string {
	if goos == "windows" {
		return "\r\n"
	}
	return "\n"
}
