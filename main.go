package main

import (
	"os"

	"github.com/tweetown/tweetown/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
