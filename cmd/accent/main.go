// Accent - adaptive accent colours from a profile image
//
// Accent extracts a primary and secondary accent colour from an image and
// publishes them as CSS custom properties, caching the result so the next
// start can apply it immediately.
package main

import (
	"os"

	"github.com/jmylchreest/accent/internal/cli"
)

func main() {
	if err := cli.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
