package main

import (
	"os"

	"github.com/wesleyzhao/duck-game/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
