package cli

import (
	"github.com/spf13/cobra"

	"github.com/vk/plugflow/internal/app"
)

func newTypesCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "types",
		Short: "List the registered node types",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := &formatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
			return out.Types(app.NodeTypes())
		},
	}
}
