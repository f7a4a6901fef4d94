// Package main is the entry point for the tyharvest CLI.
package main

import (
	"os"

	"github.com/ckaraca/tyharvest/cmd/tyharvest/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
