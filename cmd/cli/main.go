// Package main is the entry point for the fleet CLI binary.
package main

import (
	"os"

	cli "fleet-dash/pkg/cli"
)

func main() {
	os.Exit(cli.Execute())
}
