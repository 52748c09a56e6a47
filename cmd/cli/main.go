// Package main is the entry point for the cleanquote CLI.
package main

import (
	"os"

	"cleanquote/cmd/cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
