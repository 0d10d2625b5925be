package main

import (
	"os"

	"github.com/shelfbot/shelfbot/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
