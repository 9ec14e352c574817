package build

import (
	"context"
	"fmt"
	"regexp"

	goversion "github.com/hashicorp/go-version"

	"github.com/adequator/vscode-makefile-tools/internal/process"
)

// MinimumVersion is the oldest build tool version known to understand the
// dry-run switches the extension relies on.
var MinimumVersion = goversion.Must(goversion.NewVersion("3.81"))

// versionPattern matches the first dotted version number in --version output.
var versionPattern = regexp.MustCompile(`\d+(?:\.\d+)+`)

// Tool is a resolved build tool executable.
type Tool struct {
	// Path is the absolute path of the executable.
	Path string

	// Version is the reported tool version, nil when it could not be
	// determined.
	Version *goversion.Version
}

// Supported reports whether the tool version meets the minimum. An unknown
// version is assumed supported.
func (t Tool) Supported() bool {
	if t.Version == nil {
		return true
	}
	return t.Version.GreaterThanOrEqual(MinimumVersion)
}

// ResolveTool locates the build tool executable and probes its version by
// running it with --version. A tool that cannot be located is an error; a
// version that cannot be parsed is not.
func ResolveTool(ctx context.Context, runner process.Runner, makePath, workingDir string) (Tool, error) {
	resolved, err := process.FindExecutable(makePath)
	if err != nil {
		return Tool{}, fmt.Errorf("resolve build tool: %w", err)
	}

	tool := Tool{Path: resolved}
	outcome, err := runner.Run(ctx, process.Spec{
		Command: resolved,
		Args:    []string{"--version"},
		Dir:     workingDir,
	})
	if err != nil || outcome.ExitCode != 0 {
		return tool, nil
	}

	if match := versionPattern.FindString(outcome.Stdout); match != "" {
		if v, err := goversion.NewVersion(match); err == nil {
			tool.Version = v
		}
	}
	return tool, nil
}
