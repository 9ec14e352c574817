// Package settings provides the extension's configuration: what make to
// run, with which arguments, where build logs and caches live, and which
// launch configuration is currently selected.
//
// Configuration is layered with fixed precedence: built-in defaults, then
// the user-level TOML config, then project-level settings (JSON or YAML),
// then environment variable overrides.
package settings

import (
	"github.com/adequator/vscode-makefile-tools/internal/launch"
)

// Configuration is one named make configuration from project settings.
type Configuration struct {
	// Name identifies the configuration in pickers and state.
	Name string `json:"name"`

	// MakeArgs are the arguments this configuration passes to make.
	MakeArgs []string `json:"makeArgs,omitempty"`

	// MakePath overrides the global make executable for this configuration.
	MakePath string `json:"makePath,omitempty"`

	// MakeDirectory overrides the directory make runs in.
	MakeDirectory string `json:"makeDirectory,omitempty"`

	// MakefilePath overrides the makefile passed via -f.
	MakefilePath string `json:"makefilePath,omitempty"`

	// BuildLog overrides the global build log path.
	BuildLog string `json:"buildLog,omitempty"`
}

// Settings is the merged extension configuration.
type Settings struct {
	// MakePath is the make executable; name or path. Empty means "make".
	MakePath string `json:"makePath,omitempty"`

	// MakeDirectory is the directory make runs in, relative to the
	// workspace root unless absolute. Empty means the workspace root.
	MakeDirectory string `json:"makeDirectory,omitempty"`

	// MakefilePath names the makefile passed to make via -f. Empty lets
	// make pick its own default.
	MakefilePath string `json:"makefilePath,omitempty"`

	// BuildLog is an existing build output file reused for IntelliSense
	// instead of running a dry-run.
	BuildLog string `json:"buildLog,omitempty"`

	// ExtensionOutputFolder holds the dry-run cache and persisted state.
	ExtensionOutputFolder string `json:"extensionOutputFolder,omitempty"`

	// PreConfigureScript is sourced before configure operations.
	PreConfigureScript string `json:"preConfigureScript,omitempty"`

	// AlwaysPreConfigure runs the pre-configure script before every
	// configure.
	AlwaysPreConfigure bool `json:"alwaysPreConfigure,omitempty"`

	// DryrunSwitches are extra flags appended to --dry-run invocations.
	DryrunSwitches []string `json:"dryrunSwitches,omitempty"`

	// LoggingLevel controls the diagnostic logger.
	LoggingLevel string `json:"loggingLevel,omitempty"`

	// Configurations are the named make configurations to pick from.
	Configurations []Configuration `json:"configurations,omitempty"`

	// LaunchConfigurations are the launchable binaries to pick from.
	LaunchConfigurations []launch.Configuration `json:"launchConfigurations,omitempty"`
}

// Defaults returns the built-in defaults layer.
func Defaults() Settings {
	return Settings{
		MakePath:              "make",
		ExtensionOutputFolder: ".makefile-tools",
		DryrunSwitches:        []string{"--always-make", "--keep-going", "--print-directory"},
		LoggingLevel:          "info",
	}
}

// ConfigurationByName returns the named configuration.
func (s Settings) ConfigurationByName(name string) (Configuration, bool) {
	for _, cfg := range s.Configurations {
		if cfg.Name == name {
			return cfg, true
		}
	}
	return Configuration{}, false
}

// BuildContext is the explicit context a build or dry-run operation runs
// with, resolved from the merged settings and the active configuration so
// the command assembler and runner need no ambient state.
type BuildContext struct {
	// ConfigurationName is the active configuration, empty for none.
	ConfigurationName string

	// MakePath is the resolved make executable.
	MakePath string

	// WorkingDir is the directory make runs in.
	WorkingDir string

	// Target is the current build target, empty for make's default.
	Target string

	// ConfiguredArgs are the arguments from the active configuration,
	// including the -f makefile selection when one is configured.
	ConfiguredArgs []string

	// DryRunSwitches are extra flags for dry-run invocations.
	DryRunSwitches []string

	// BuildLogPath is the configured build log, empty for none.
	BuildLogPath string

	// CachePath is where dry-run output is persisted.
	CachePath string
}
