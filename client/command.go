package client

import "github.com/kvwire/respclient/resp"

// Command, Item, Reply and the constructors below are re-exported
// from resp so callers of this package never need to import it
// directly for everyday use.
type (
	Command = resp.Command
	Item    = resp.Item
	Reply   = resp.Reply
)

// Text and Bytes build Command arguments; NewCommand is the common
// case of an all-text command such as ["GET", "key"].
var (
	Text       = resp.Text
	Bytes      = resp.Bytes
	NewCommand = resp.NewCommand
)
