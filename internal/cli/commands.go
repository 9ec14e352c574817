package cli

import "github.com/spf13/cobra"

// registerCommands adds all subcommands to the root command.
func registerCommands(root *cobra.Command, version, commit, date string) {
	root.AddCommand(
		newBuildCmd(),
		newConfigureCmd(),
		newPreconfigureCmd(),
		newTargetsCmd(),
		newTargetCmd(),
		newConfigurationCmd(),
		newDebugCmd(),
		newLaunchCmd(),
		newVersionCmd(version, commit, date),
	)
}
