package main

import (
	"fmt"
	"os"

	"github.com/park285/kingcapture/internal/cli"
)

func main() {
	root := cli.Root()
	root.SetArgs(os.Args[1:])
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "kingcapture:", err)
		os.Exit(1)
	}
}
