// Package launch defines the launch configuration value object: the binary
// to run or debug, its working directory and its arguments.
package launch

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrNoConfiguration indicates no launch configuration is currently
// selected. Debug and run-in-terminal operations require one.
var ErrNoConfiguration = errors.New("no launch configuration is set")

// Configuration is an immutable snapshot of a launchable binary. Field names
// follow the project settings schema.
type Configuration struct {
	// BinaryPath is the path of the binary to launch.
	BinaryPath string `json:"binaryPath" yaml:"binaryPath" toml:"binaryPath"`

	// CWD is the working directory for the launch.
	CWD string `json:"cwd" yaml:"cwd" toml:"cwd"`

	// BinaryArgs are the arguments passed to the binary.
	BinaryArgs []string `json:"binaryArgs,omitempty" yaml:"binaryArgs,omitempty" toml:"binaryArgs,omitempty"`
}

// String renders the configuration in its settings display form:
// cwd>binaryPath(arg1,arg2).
func (c Configuration) String() string {
	return fmt.Sprintf("%s>%s(%s)", c.CWD, c.BinaryPath, strings.Join(c.BinaryArgs, ","))
}

// ParseString parses the display form produced by String. Used to match a
// persisted current-launch-configuration value against the configured list.
func ParseString(s string) (Configuration, error) {
	sep := strings.Index(s, ">")
	open := strings.Index(s, "(")
	if sep < 0 || open < sep || !strings.HasSuffix(s, ")") {
		return Configuration{}, fmt.Errorf("malformed launch configuration %q", s)
	}

	cfg := Configuration{
		CWD:        s[:sep],
		BinaryPath: s[sep+1 : open],
	}
	if args := s[open+1 : len(s)-1]; args != "" {
		cfg.BinaryArgs = strings.Split(args, ",")
	}
	return cfg, nil
}

// Context carries the currently selected launch configuration, if any.
// Operations that need one fail with ErrNoConfiguration instead of reading
// ambient state.
type Context struct {
	current *Configuration
}

// NewContext creates a context holding the given configuration. Pass nil for
// "nothing selected".
func NewContext(cfg *Configuration) Context {
	if cfg == nil {
		return Context{}
	}
	c := *cfg
	return Context{current: &c}
}

// Selected reports whether a launch configuration is set.
func (ctx Context) Selected() bool {
	return ctx.current != nil
}

// Current returns the selected configuration.
func (ctx Context) Current() (Configuration, error) {
	if ctx.current == nil {
		return Configuration{}, ErrNoConfiguration
	}
	return *ctx.current, nil
}

// TargetPath returns the path of the binary to launch.
func (ctx Context) TargetPath() (string, error) {
	if ctx.current == nil {
		return "", ErrNoConfiguration
	}
	return ctx.current.BinaryPath, nil
}

// CurrentDir returns the working directory for the launch. When the
// configuration has no explicit directory, the binary's directory is used.
func (ctx Context) CurrentDir() (string, error) {
	if ctx.current == nil {
		return "", ErrNoConfiguration
	}
	if ctx.current.CWD != "" {
		return ctx.current.CWD, nil
	}
	return filepath.Dir(ctx.current.BinaryPath), nil
}

// TargetArgs returns the launch arguments.
func (ctx Context) TargetArgs() ([]string, error) {
	if ctx.current == nil {
		return nil, ErrNoConfiguration
	}
	args := make([]string, len(ctx.current.BinaryArgs))
	copy(args, ctx.current.BinaryArgs)
	return args, nil
}

// TargetArgsConcat returns the launch arguments space-joined into one
// string.
func (ctx Context) TargetArgsConcat() (string, error) {
	if ctx.current == nil {
		return "", ErrNoConfiguration
	}
	return strings.Join(ctx.current.BinaryArgs, " "), nil
}
