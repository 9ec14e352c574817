// Package debugger infers which debugger backend and executable to use for
// a compiler, and starts debug sessions for the selected launch target.
package debugger

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/adequator/vscode-makefile-tools/internal/hostshell"
	"github.com/adequator/vscode-makefile-tools/internal/logging"
)

// Backend identifies a debugger family.
type Backend int

const (
	// BackendGDB drives gdb through the machine interface.
	BackendGDB Backend = iota

	// BackendLLDB drives lldb through the machine interface.
	BackendLLDB

	// BackendMSVC uses the native vendor debugger, which performs its own
	// discovery.
	BackendMSVC
)

// String returns the backend name.
func (b Backend) String() string {
	switch b {
	case BackendGDB:
		return "gdb"
	case BackendLLDB:
		return "lldb"
	case BackendMSVC:
		return "msvc"
	default:
		return "unknown"
	}
}

// executableName returns the canonical debugger binary name, empty for the
// native backend.
func (b Backend) executableName() string {
	switch b {
	case BackendGDB:
		return "gdb"
	case BackendLLDB:
		return "lldb"
	default:
		return ""
	}
}

// swap exchanges gdb and lldb. The native backend never swaps.
func (b Backend) swap() Backend {
	switch b {
	case BackendGDB:
		return BackendLLDB
	case BackendLLDB:
		return BackendGDB
	default:
		return b
	}
}

// Choice is the outcome of debugger selection.
type Choice struct {
	// Backend is the selected debugger family.
	Backend Backend

	// DebuggerPath is the debugger executable to use. Empty when the
	// backend performs its own discovery: always for the native backend,
	// and for lldb on macOS.
	DebuggerPath string
}

// ExistsFunc reports whether a path exists on disk.
type ExistsFunc func(path string) bool

// defaultExists checks the local file system.
func defaultExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Selector picks a debugger for a compiler.
type Selector struct {
	shell  hostshell.Shell
	exists ExistsFunc
	logger *logging.Logger
}

// SelectorOption configures a Selector.
type SelectorOption func(*Selector)

// WithShell sets the host shell conventions used for executable suffixes
// and platform checks.
func WithShell(s hostshell.Shell) SelectorOption {
	return func(sel *Selector) {
		sel.shell = s
	}
}

// WithExists sets the path existence check.
func WithExists(fn ExistsFunc) SelectorOption {
	return func(sel *Selector) {
		sel.exists = fn
	}
}

// WithLogger sets the diagnostic logger.
func WithLogger(l *logging.Logger) SelectorOption {
	return func(sel *Selector) {
		sel.logger = l
	}
}

// NewSelector creates a debugger selector.
func NewSelector(opts ...SelectorOption) *Selector {
	sel := &Selector{
		shell:  hostshell.Current(),
		exists: defaultExists,
		logger: logging.NullLogger,
	}
	for _, opt := range opts {
		opt(sel)
	}
	return sel
}

// Select infers the debugger for the given compiler executable.
//
// The compiler's base name classifies the family: clang* pairs with lldb,
// cl* with the native vendor debugger, and everything else with gdb. For
// gdb and lldb the candidate executable is expected next to the compiler;
// when that candidate is missing the backend swaps once to the alternate
// and the recomputed path is returned without another probe, even if the
// alternate is missing too. On macOS a final lldb backend leaves the path
// empty so the debug host performs its own discovery.
func (sel *Selector) Select(compilerPath string) Choice {
	name := compilerBaseName(compilerPath)

	var backend Backend
	switch {
	case strings.HasPrefix(name, "clang"):
		backend = BackendLLDB
	case strings.HasPrefix(name, "cl"):
		sel.logger.Debug("compiler %q classified as MSVC family", name)
		return Choice{Backend: BackendMSVC}
	default:
		backend = BackendGDB
	}

	dir := filepath.Dir(compilerPath)
	candidate := sel.candidatePath(dir, backend)
	if !sel.exists(candidate) {
		swapped := backend.swap()
		sel.logger.Debug("debugger %s not found at %s, trying %s", backend, candidate, swapped)
		backend = swapped
		candidate = sel.candidatePath(dir, backend)
	}

	if backend == BackendLLDB && sel.shell.Platform() == "darwin" {
		return Choice{Backend: BackendLLDB}
	}

	return Choice{Backend: backend, DebuggerPath: candidate}
}

// candidatePath returns the expected debugger location next to the compiler.
func (sel *Selector) candidatePath(dir string, backend Backend) string {
	return filepath.Join(dir, backend.executableName()+sel.shell.ExecSuffix())
}

// compilerBaseName strips the directory and extension from a compiler path.
func compilerBaseName(compilerPath string) string {
	base := filepath.Base(compilerPath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
