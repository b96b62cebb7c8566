package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/docrank/internal/version"
)

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "docrankctl version "+version.String())
		},
	}
}
