package main

import (
	"fmt"
	"os"

	"github.com/stitts-dev/lineup-optimizer/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
