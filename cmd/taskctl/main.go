package main

import (
	"fmt"
	"os"
)

func main() {
	root := newRootCommand(newEnv())
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "taskctl: %v\n", err)
		os.Exit(1)
	}
}
