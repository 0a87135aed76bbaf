package main

import (
	"os"

	"github.com/lumenbar/lumen/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
