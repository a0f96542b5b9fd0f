// Package main provides the entry point for the cvctl operator CLI.
package main

import (
	"fmt"
	"os"

	"cv-status/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
