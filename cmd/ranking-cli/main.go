// Package main provides the ranking engine CLI entrypoint.
package main

import (
	"fmt"
	"os"

	"github.com/tastemap/ranking-engine/cmd/ranking-cli/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
