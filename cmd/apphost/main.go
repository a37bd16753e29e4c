// Command apphost runs scenarios against the application host and
// inspects their recorded traces.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/apphost/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
