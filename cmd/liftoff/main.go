package main

import (
	"os"

	"github.com/rahul/liftoff/internal/cli"
)

func main() {
	// cobra already printed the error; any error here prevented a result.
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
