package cli

import (
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/adequator/vscode-makefile-tools/internal/extension"
	"github.com/adequator/vscode-makefile-tools/internal/logging"
)

// setup creates and loads the extension facade from the root flags. The
// caller owns the returned extension and must Dispose it.
func setup(cmd *cobra.Command, extraOpts ...extension.Option) (*extension.Extension, error) {
	workspace, _ := cmd.Flags().GetString("workspace")
	configPath, _ := cmd.Flags().GetString("config")
	logLevel, _ := cmd.Flags().GetString("log-level")

	if workspace == "" {
		workspace, _ = os.Getwd()
	}

	logger := logging.Default()

	opts := []extension.Option{
		extension.WithWorkspaceRoot(workspace),
		extension.WithChannel(logging.NewWriterChannel(cmd.OutOrStdout())),
		extension.WithLogger(logger),
	}
	if configPath != "" {
		opts = append(opts, extension.WithUserConfigPath(configPath))
	}
	opts = append(opts, extraOpts...)

	ext := extension.New(opts...)
	if err := ext.Load(cmd.Context()); err != nil {
		return nil, NewConfigError("load settings: %v", err)
	}

	// The flag wins over the configured logging level.
	if logLevel != "" {
		logger.SetLevel(logging.ParseLogLevel(logLevel))
	}

	return ext, nil
}

// stdoutIsTerminal reports whether stdout is attached to a terminal.
func stdoutIsTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}
