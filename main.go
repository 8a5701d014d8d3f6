package main

import (
	"os"

	"github.com/nightfall-sim/nightfall/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
