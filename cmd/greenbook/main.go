package main

import (
	"os"

	"github.com/greenbook-dev/greenbook/internal/commands"
)

func main() {
	if err := commands.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
