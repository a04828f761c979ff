package main

import (
	"os"

	"github.com/CTAG07/Flattery/internal/cli"
)

func main() {
	if err := cli.RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
