package main

import (
	"os"

	"github.com/newwavedigital/ERP-sub000/pkg/interfaces/cli/commands"
)

func main() {
	if err := commands.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
