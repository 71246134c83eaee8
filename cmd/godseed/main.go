// Command godseed runs, inspects and tests the entropy garden simulation.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/godseed/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
