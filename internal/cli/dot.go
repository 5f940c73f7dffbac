package cli

import (
	"github.com/spf13/cobra"

	"github.com/vk/plugflow/internal/app"
)

func newDotCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "dot <graph-path>...",
		Short: "Write the plug graph in Graphviz DOT",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.NewConfig(app.Config{
				GraphPaths:    args,
				VariablesPath: rootOpts.VariablesPath,
				LogFormat:     rootOpts.LogFormat,
				LogLevel:      rootOpts.LogLevel,
			})
			if err != nil {
				return &ExitError{Code: ExitCommandError, Message: "invalid configuration", Err: err}
			}
			a, err := app.NewApp(cmd.ErrOrStderr(), cfg)
			if err != nil {
				return &ExitError{Code: ExitCommandError, Message: "startup failed", Err: err}
			}
			return a.WriteDOT(cmd.OutOrStdout())
		},
	}
}
