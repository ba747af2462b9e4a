// Command grizzly compiles declarative dataframe pipelines to SQL and runs
// them.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/roach88/grizzly/internal/cli"
)

func main() {
	err := cli.NewRootCommand().Execute()
	if err != nil {
		var exitErr *cli.ExitError
		// Commands report their own failures; only print what they did not.
		if !errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
	}
	os.Exit(cli.GetExitCode(err))
}
