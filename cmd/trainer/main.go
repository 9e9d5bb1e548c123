package main

import (
	"fmt"
	"os"

	"github.com/arthurlee116/english-listening-trainer-sub003/cmd/trainer/commands"
)

func main() {
	if err := commands.NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
