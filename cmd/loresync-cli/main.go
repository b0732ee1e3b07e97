// Command loresync-cli runs propagation scenarios and inspects a running
// loresync-server.
package main

import (
	"fmt"
	"os"

	"github.com/yndnr/loresync/internal/cli/command"
)

func main() {
	if err := command.App().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
