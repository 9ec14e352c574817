package cli

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/adequator/vscode-makefile-tools/internal/makefile"
)

func newTargetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "targets",
		Short: "List the build targets of the resolved makefile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ext, err := setup(cmd)
			if err != nil {
				return err
			}
			defer ext.Dispose()

			targets, err := ext.Targets()
			if errors.Is(err, makefile.ErrNotFound) {
				return NewConfigError("%v", err)
			}
			if err != nil {
				return err
			}

			defaultGoal, _ := ext.DefaultTarget()

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, t := range targets {
				marker := ""
				if t.Name == defaultGoal {
					marker = "(default)"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", t.Name, t.Description, marker)
			}
			return w.Flush()
		},
	}
}

func newTargetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "target [name]",
		Short: "Show or set the current build target",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ext, err := setup(cmd)
			if err != nil {
				return err
			}
			defer ext.Dispose()

			if len(args) == 0 {
				target := ext.CurrentTarget()
				if target == "" {
					target = "(default)"
				}
				fmt.Fprintln(cmd.OutOrStdout(), target)
				return nil
			}

			if err := ext.SetTarget(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Current target set to %q.\n", args[0])
			return nil
		},
	}
}

func newConfigurationCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "configuration [name]",
		Short: "Show or set the active configuration",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ext, err := setup(cmd)
			if err != nil {
				return err
			}
			defer ext.Dispose()

			out := cmd.OutOrStdout()

			if len(args) == 0 {
				name := ext.CurrentConfiguration()
				if name == "" {
					name = "(none)"
				}
				fmt.Fprintln(out, name)
				for _, cfg := range ext.Settings().Configurations {
					fmt.Fprintf(out, "  available: %s\n", cfg.Name)
				}
				return nil
			}

			if err := ext.SetConfiguration(args[0]); err != nil {
				return NewUsageError("%v", err)
			}
			fmt.Fprintf(out, "Active configuration set to %q.\n", args[0])
			return nil
		},
	}
}
