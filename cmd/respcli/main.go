// respcli is a thin command-line harness over package client, useful
// for poking a RESP-speaking server by hand and as a worked example of
// wiring the library into a real binary.
package main

import (
	"fmt"
	"os"

	"github.com/kvwire/respclient/cmd/respcli/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "respcli:", err)
		os.Exit(1)
	}
}
