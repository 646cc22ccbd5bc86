package main

import (
	"os"

	"github.com/crlotwhite/libetude-sub002/cmd/etude/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
