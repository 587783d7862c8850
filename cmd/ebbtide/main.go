package main

import (
	"os"

	"github.com/quantfold/ebbtide/cmd/ebbtide/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
