// Command offlinectl is the command-line client for the offline
// foundation daemon, exposing queue, cache, conflict, and overlay
// introspection and control over the daemon's REST API.
package main

import (
	"fmt"
	"os"

	"github.com/offlinefoundation/core/cmd/offlinectl/commands"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.Version = version
	commands.Commit = commit
	commands.Date = date

	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
