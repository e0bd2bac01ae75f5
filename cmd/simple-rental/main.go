package main

import (
	"os"

	"github.com/tendant/simple-rental/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
