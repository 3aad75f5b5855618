package main

import (
	"os"

	"github.com/qosha1/easysdk/internal/cli/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
