package main

import (
	"fmt"
	"os"
)

func main() {
	wiring := defaultCommandWiring(os.Stdout, os.Stderr)
	if err := newRootCommand(wiring).Execute(); err != nil {
		fmt.Fprintf(wiring.stderr, "stinstaller: %v\n", err)
		os.Exit(1)
	}
}
