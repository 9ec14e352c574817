// Package build assembles and runs build-tool command lines.
//
// The package has two halves: a pure command assembler that turns a target
// and configured arguments into an argument vector, and a Driver that spawns
// the build tool, streams its output to a log channel and persists dry-run
// output for downstream consumers.
package build

import "strings"

// DryRunFlag asks the build tool to print recipes without executing them.
const DryRunFlag = "--dry-run"

// AssembleArgs builds the argument vector for a build invocation. The target
// comes first when present, followed by the configured arguments verbatim.
// Dry-run invocations append the dry-run flag and then any extra dry-run
// switches, preserving order.
//
// Argument contents are not validated; malformed flags pass through.
func AssembleArgs(target string, configuredArgs []string, dryRun bool, dryRunExtraFlags []string) []string {
	args := make([]string, 0, len(configuredArgs)+len(dryRunExtraFlags)+2)
	if target != "" {
		args = append(args, target)
	}
	args = append(args, configuredArgs...)
	if dryRun {
		args = append(args, DryRunFlag)
		args = append(args, dryRunExtraFlags...)
	}
	return args
}

// CommandLine renders a command and its arguments for log output.
func CommandLine(command string, args []string) string {
	if len(args) == 0 {
		return command
	}
	return command + " " + strings.Join(args, " ")
}
