// Command stencil renders, validates and lists template bundles.
package main

import (
	"os"

	"github.com/go-drift/stencil/cmd/stencil/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
