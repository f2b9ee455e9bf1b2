package main

import (
	"fmt"
	"os"

	"github.com/rezonia/invoice-tally/cmd/invoice-tally/cmd"
	"github.com/rezonia/invoice-tally/internal/config"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
