package main

import (
	"os"

	"github.com/jonesrussell/funnel-analyzer/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
