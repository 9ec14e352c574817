package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/adequator/vscode-makefile-tools/internal/launch"
)

func newDebugCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "debug",
		Short: "Start debugging the selected launch target",
		Long: `Infer the debugger from the compiler (clang pairs with lldb, cl with the
native vendor debugger, everything else with gdb), build the debug session
request and hand it to the debug host.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			compiler, _ := cmd.Flags().GetString("compiler")
			showOnly, _ := cmd.Flags().GetBool("show")

			ext, err := setup(cmd)
			if err != nil {
				return err
			}
			defer ext.Dispose()

			if showOnly {
				req, err := ext.BuildSessionRequest(compiler)
				if errors.Is(err, launch.ErrNoConfiguration) {
					return NewConfigError("%v", err)
				}
				if err != nil {
					return err
				}
				data, err := json.MarshalIndent(req, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return nil
			}

			err = ext.StartDebugSession(cmd.Context(), compiler)
			if errors.Is(err, launch.ErrNoConfiguration) {
				return NewConfigError("%v", err)
			}
			return err
		},
	}

	cmd.Flags().String("compiler", "", "Compiler executable the project builds with")
	cmd.Flags().Bool("show", false, "Print the debug session request instead of starting it")

	return cmd
}
