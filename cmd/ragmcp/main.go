// Package main provides the entry point for the ragmcp CLI.
package main

import (
	"os"

	"github.com/ragmcp/ragmcp/cmd/ragmcp/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
