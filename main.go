package main

import (
	"os"

	"github.com/machinae/graphmem/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
