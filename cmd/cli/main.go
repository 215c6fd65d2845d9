package main

import (
	"os"

	"github.com/uptome-dev/uptome/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
