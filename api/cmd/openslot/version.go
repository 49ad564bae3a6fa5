package openslot

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/openslot/openslot/api/pkg/system"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version.",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), system.Version)
		},
	}
}
