package main

import (
	"os"

	"github.com/pluginhub-dev/pluginhub/internal/cli"
)

func main() {
	if err := cli.Root().Execute(); err != nil {
		os.Exit(1)
	}
}
