// Package cli defines the Cobra command tree for the makefile-tools CLI.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Execute runs the root command and returns the exit code.
func Execute(ctx context.Context, version, commit, date string) int {
	rootCmd := newRootCmd(version, commit, date)

	err := rootCmd.ExecuteContext(ctx)
	if err == nil {
		return 0
	}

	fmt.Fprintf(os.Stderr, "makefile-tools: %s\n", err) //nolint:errcheck // best-effort stderr write

	var usageErr *UsageError
	if errors.As(err, &usageErr) {
		return 2
	}

	var configErr *ConfigError
	if errors.As(err, &configErr) {
		return 3
	}

	return 1
}

// newRootCmd creates the root Cobra command with all subcommands registered.
func newRootCmd(version, commit, date string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "makefile-tools",
		Short: "Build and launch glue for make-based projects",
		Long: `Drive make-based projects the way the editor extension does: assemble
and run build commands, generate dry-run output for IntelliSense, run the
pre-configure script, infer the right debugger for your compiler, and run
or debug the selected launch target.`,
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	rootCmd.PersistentFlags().StringP("workspace", "w", "", "Workspace root directory (default: current directory)")
	rootCmd.PersistentFlags().String("config", "", "User-level config file (TOML)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")

	registerCommands(rootCmd, version, commit, date)

	return rootCmd
}
