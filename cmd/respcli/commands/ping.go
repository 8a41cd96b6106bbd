package commands

import "github.com/spf13/cobra"

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Send PING and print the reply",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOne(cmd, []string{"PING"})
	},
}
