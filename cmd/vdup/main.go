// Command vdup finds and deletes near-duplicate video files.
package main

import (
	"os"

	"github.com/kilupskalvis/vdup/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
