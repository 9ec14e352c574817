package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/adequator/vscode-makefile-tools/internal/preconfigure"
)

func newConfigureCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "configure",
		Short: "Obtain build output for IntelliSense",
		Long: `Read the configured build log when it exists and is non-empty, otherwise
run a dry-run build, and report where the IntelliSense data came from.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ext, err := setup(cmd)
			if err != nil {
				return err
			}
			defer ext.Dispose()

			if ext.Settings().AlwaysPreConfigure {
				if _, err := ext.RunPreConfigure(cmd.Context()); err != nil {
					return NewConfigError("pre-configure: %v", err)
				}
			}

			resolution, err := ext.ResolveIntelliSenseSource(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "IntelliSense source: %s\n", resolution.Source)
			if resolution.LogPath != "" {
				fmt.Fprintf(out, "Build log: %s\n", resolution.LogPath)
			}
			if resolution.Degraded {
				fmt.Fprintln(out, "Warning: dry-run failed; IntelliSense data may be stale or partial.")
			}
			return nil
		},
	}
}

func newPreconfigureCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "preconfigure",
		Short: "Run the pre-configure script",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ext, err := setup(cmd)
			if err != nil {
				return err
			}
			defer ext.Dispose()

			result, err := ext.RunPreConfigure(cmd.Context())
			if errors.Is(err, preconfigure.ErrNoScript) || errors.Is(err, preconfigure.ErrScriptNotFound) {
				return NewConfigError("%v", err)
			}
			if err != nil {
				return err
			}
			if !result.Succeeded() {
				return fmt.Errorf("pre-configure failed with exit code %d", result.ExitCode)
			}
			return nil
		},
	}
}
