// Command faceoff runs the facial-expression reflex game.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/faceoff/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
