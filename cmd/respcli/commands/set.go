package commands

import "github.com/spf13/cobra"

var setCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Send SET for a single key/value pair",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOne(cmd, append([]string{"SET"}, args...))
	},
}
