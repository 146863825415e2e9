// Command icetime reconstructs second-by-second NHL game timelines.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/icetime/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
