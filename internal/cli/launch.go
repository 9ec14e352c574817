package cli

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/adequator/vscode-makefile-tools/internal/extension"
	"github.com/adequator/vscode-makefile-tools/internal/launch"
)

func newLaunchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "launch",
		Short: "Inspect, select and run the launch target",
	}

	cmd.AddCommand(
		newLaunchShowCmd(),
		newLaunchListCmd(),
		newLaunchSelectCmd(),
		newLaunchRunCmd(),
	)

	return cmd
}

func newLaunchShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the selected launch target's path, cwd and arguments",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ext, err := setup(cmd)
			if err != nil {
				return err
			}
			defer ext.Dispose()

			path, err := ext.LaunchTargetPath()
			if errors.Is(err, launch.ErrNoConfiguration) {
				return NewConfigError("%v", err)
			}
			if err != nil {
				return err
			}
			cwd, _ := ext.LaunchCurrentDir()
			args, _ := ext.LaunchTargetArgs()
			concat, _ := ext.LaunchTargetArgsConcat()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "path: %s\n", path)
			fmt.Fprintf(out, "cwd:  %s\n", cwd)
			fmt.Fprintf(out, "args: %q\n", args)
			fmt.Fprintf(out, "argline: %s\n", concat)
			return nil
		},
	}
}

func newLaunchListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the configured launch configurations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ext, err := setup(cmd)
			if err != nil {
				return err
			}
			defer ext.Dispose()

			configs := ext.Settings().LaunchConfigurations
			if len(configs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No launch configurations are defined in the project settings.")
				return nil
			}

			pick := ext.CurrentLaunchConfiguration()
			for i, cfg := range configs {
				marker := " "
				if pick != "" && cfg.String() == pick {
					marker = "*"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %d: %s\n", marker, i, cfg)
			}
			return nil
		},
	}
}

func newLaunchSelectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "select <index>",
		Short: "Select the current launch configuration by index",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := strconv.Atoi(args[0])
			if err != nil {
				return NewUsageError("index must be a number, got %q", args[0])
			}

			ext, err := setup(cmd)
			if err != nil {
				return err
			}
			defer ext.Dispose()

			configs := ext.Settings().LaunchConfigurations
			if index < 0 || index >= len(configs) {
				return NewUsageError("index %d out of range, %d launch configurations defined", index, len(configs))
			}

			if err := ext.SetLaunchConfiguration(configs[index]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Launch configuration set to %s.\n", configs[index])
			return nil
		},
	}
}

func newLaunchRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the selected launch target in the managed terminal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			wait, _ := cmd.Flags().GetBool("wait")

			var opts []extension.Option
			if stdoutIsTerminal() {
				opts = append(opts, extension.WithTerminalOutput(func(data []byte) {
					os.Stdout.Write(data) //nolint:errcheck // best-effort mirror
				}))
			}

			ext, err := setup(cmd, opts...)
			if err != nil {
				return err
			}
			defer ext.Dispose()

			if err := ext.RunInTerminal(); err != nil {
				if errors.Is(err, launch.ErrNoConfiguration) {
					return NewConfigError("%v", err)
				}
				return err
			}
			if !wait {
				return nil
			}

			term := ext.Terminal().Current()
			if term == nil {
				return nil
			}

			// The shell ends after the target does, so waiting on the
			// terminal waits on the target.
			term.WriteString("exit" + lineSeparator()) //nolint:errcheck // shell may already be gone

			select {
			case <-term.Done():
			case <-cmd.Context().Done():
				return cmd.Context().Err()
			}

			if code := term.ExitCode(); code != 0 {
				return fmt.Errorf("launch target exited with code %d", code)
			}
			return nil
		},
	}

	cmd.Flags().Bool("wait", true, "Wait for the target to finish and report its exit code")

	return cmd
}

// lineSeparator returns the shell command terminator for this host.
func lineSeparator() string {
	if runtime.GOOS == "windows" {
		return "\r\n"
	}
	return "\n"
}
