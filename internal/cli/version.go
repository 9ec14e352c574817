package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/adequator/vscode-makefile-tools/internal/build"
)

func newVersionCmd(version, commit, date string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tool, _ := cmd.Flags().GetBool("tool")

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "makefile-tools version %s (commit: %s, built: %s)\n", version, commit, date)
			if !tool {
				return nil
			}

			ext, err := setup(cmd)
			if err != nil {
				return err
			}
			defer ext.Dispose()

			t, err := ext.Tool(cmd.Context())
			if err != nil {
				return NewConfigError("%v", err)
			}
			if t.Version != nil {
				fmt.Fprintf(out, "build tool: %s (version %s)\n", t.Path, t.Version)
			} else {
				fmt.Fprintf(out, "build tool: %s (version unknown)\n", t.Path)
			}
			if !t.Supported() {
				fmt.Fprintf(out, "Warning: build tool older than %s; dry-run switches may be unavailable.\n", build.MinimumVersion)
			}
			return nil
		},
	}

	cmd.Flags().Bool("tool", false, "Also resolve and report the build tool version")

	return cmd
}
