package commands

import "github.com/spf13/cobra"

var rawCmd = &cobra.Command{
	Use:   "raw <command> [args...]",
	Short: "Send an arbitrary command and print the decoded reply",
	Long: `raw submits whatever command name and arguments follow it verbatim,
useful for commands respcli has no dedicated subcommand for.
Arguments beginning with "-" are read as respcli flags unless they
follow a "--" separator.

Example:
  respcli raw HSET myhash field1 value1`,
	Args:               cobra.MinimumNArgs(1),
	DisableFlagParsing: false,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOne(cmd, args)
	},
}
