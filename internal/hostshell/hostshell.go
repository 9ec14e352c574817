// Package hostshell abstracts the platform-dependent pieces of spawning
// shells and naming executables: script invocation syntax, executable
// suffixes and argument quoting.
//
// The platform is passed in as a value rather than read from runtime.GOOS at
// call sites, so behavior for any platform is testable on any host.
package hostshell

import (
	"runtime"
	"strings"
)

// Shell describes the host platform's shell conventions.
type Shell interface {
	// Platform returns the GOOS value this shell targets.
	Platform() string

	// ExecSuffix returns the executable filename suffix, ".exe" on Windows
	// and "" elsewhere.
	ExecSuffix() string

	// ScriptInvocation returns the command and arguments that run the given
	// script inside a shell whose environment changes apply to the script's
	// own commands.
	ScriptInvocation(scriptPath string) (command string, args []string)

	// QuoteArgs joins arguments into a single command-line string, quoting
	// any argument the shell would otherwise split or expand.
	QuoteArgs(args []string) string
}

// windowsShell implements Shell for Windows hosts.
type windowsShell struct{}

func (windowsShell) Platform() string { return "windows" }

func (windowsShell) ExecSuffix() string { return ".exe" }

// ScriptInvocation runs the script through the command interpreter. cmd /c
// executes the script in a child interpreter that inherits and can set
// environment for subsequent commands in the same invocation.
func (windowsShell) ScriptInvocation(scriptPath string) (string, []string) {
	return "cmd", []string{"/c", scriptPath}
}

func (windowsShell) QuoteArgs(args []string) string {
	quoted := make([]string, len(args))
	for i, arg := range args {
		quoted[i] = quoteWindows(arg)
	}
	return strings.Join(quoted, " ")
}

// posixShell implements Shell for everything that is not Windows.
type posixShell struct {
	goos string
}

func (s posixShell) Platform() string { return s.goos }

func (posixShell) ExecSuffix() string { return "" }

// ScriptInvocation sources the script so that environment mutations made by
// the script take effect inside the spawned shell.
func (posixShell) ScriptInvocation(scriptPath string) (string, []string) {
	return "/bin/bash", []string{"-c", "source " + scriptPath}
}

func (posixShell) QuoteArgs(args []string) string {
	quoted := make([]string, len(args))
	for i, arg := range args {
		quoted[i] = quotePosix(arg)
	}
	return strings.Join(quoted, " ")
}

// ForPlatform returns the Shell for the given GOOS value.
func ForPlatform(goos string) Shell {
	if goos == "windows" {
		return windowsShell{}
	}
	return posixShell{goos: goos}
}

// Current returns the Shell for the running platform.
func Current() Shell {
	return ForPlatform(runtime.GOOS)
}

// quotePosix wraps the argument in single quotes when it contains characters
// a POSIX shell would interpret.
func quotePosix(arg string) string {
	if arg == "" {
		return "''"
	}
	if !strings.ContainsAny(arg, " \t\n\"'\\$`&|;<>()*?[]#~") {
		return arg
	}
	return "'" + strings.ReplaceAll(arg, "'", `'\''`) + "'"
}

// quoteWindows wraps the argument in double quotes when it contains
// whitespace or quotes, doubling embedded quotes.
func quoteWindows(arg string) string {
	if arg == "" {
		return `""`
	}
	if !strings.ContainsAny(arg, " \t\"") {
		return arg
	}
	return `"` + strings.ReplaceAll(arg, `"`, `""`) + `"`
}
