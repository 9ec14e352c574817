package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newBuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build [target]",
		Short: "Run the build tool for a target",
		Long: `Assemble the build command line for the given target (or the current
target when omitted) and run it, streaming output as it arrives.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dryRun, _ := cmd.Flags().GetBool("dry-run")

			ext, err := setup(cmd)
			if err != nil {
				return err
			}
			defer ext.Dispose()

			var target string
			if len(args) > 0 {
				target = args[0]
			}

			if dryRun {
				result, err := ext.RunDryRun(cmd.Context(), target)
				if err != nil {
					return err
				}
				if result.Degraded {
					return fmt.Errorf("dry-run failed with exit code %d", result.ExitCode)
				}
				return nil
			}

			result, err := ext.RunBuild(cmd.Context(), target)
			if err != nil {
				return err
			}
			if !result.Succeeded() {
				return fmt.Errorf("build failed with exit code %d", result.ExitCode)
			}
			return nil
		},
	}

	cmd.Flags().Bool("dry-run", false, "Print recipes without executing them")

	return cmd
}
