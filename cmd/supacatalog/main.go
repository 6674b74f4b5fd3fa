// Package main is the entry point for the supacatalog CLI.
package main

import (
	"os"

	"github.com/leapstack-labs/supacatalog/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
