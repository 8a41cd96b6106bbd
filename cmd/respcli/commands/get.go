package commands

import "github.com/spf13/cobra"

var getCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Send GET for a single key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOne(cmd, append([]string{"GET"}, args...))
	},
}
