// Package main provides the entry point for the newinstall CLI.
package main

import (
	"os"

	"github.com/lsst/lsst/internal/domain/config"
)

func main() {
	err := Execute()
	if err != nil {
		printError(err)
	}
	os.Exit(config.ExitCodeOf(err))
}
