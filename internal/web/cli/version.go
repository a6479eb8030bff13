package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aussiebroadwan/zuul/internal/web/app"
)

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), app.BuildVersion)
			return err
		},
	}
}
