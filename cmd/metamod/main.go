// Command metamod views and edits the embedded metadata of a file through
// exiftool. Without a subcommand it opens the desktop window.
package main

import (
	"fmt"
	"os"

	"metamod/internal/errors"
)

var version = "dev"

func main() {
	rootCmd := newRootCmd(newApp())
	if err := rootCmd.Execute(); err != nil {
		// Controller failures were already printed by the reporter
		var done *reportedError
		if !errors.As(err, &done) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}
