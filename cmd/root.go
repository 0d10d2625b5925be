package cmd

import "github.com/spf13/cobra"

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "shelfbot",
		Short:         "Chat bot for a shared game shelf",
		Long:          "shelfbot keeps a group chat's shared game list in a remote ledger: add games from the store catalog, track who already owns them, check repack availability, and refresh prices.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.AddCommand(
		newVersionCmd(),
		newRunCmd(),
	)

	return rootCmd
}
