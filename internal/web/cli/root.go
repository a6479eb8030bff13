// Package cli holds the zuul-web command line.
package cli

import (
	"github.com/spf13/cobra"
)

// NewRootCommand builds the zuul-web command tree.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "zuul-web",
		Short: "Web application logging users in through Zuul",
		Long: `zuul-web logs users in with the Zuul OAuth 2.0 Identity Provider and reads
their Usermap profile on their behalf.

Configuration is read from the environment and an optional .env file.
See "zuul-web serve --help" for the variables.`,
		SilenceUsage: true,
	}

	root.AddCommand(
		newServeCommand(),
		newAuthorizeURLCommand(),
		newVersionCommand(),
	)
	return root
}

// Execute runs the root command.
func Execute() error {
	return NewRootCommand().Execute()
}
