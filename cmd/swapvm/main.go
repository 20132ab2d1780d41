// Package main provides the swapvm binary, a local sandbox running the
// oracle and swap contracts on top of a database file.
package main

import (
	"fmt"
	"os"

	"go.dedis.ch/swapvm/cli/sandbox"
)

func main() {
	err := sandbox.NewApp().Run(os.Args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
