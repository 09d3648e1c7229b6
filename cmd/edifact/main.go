package main

import (
	"os"

	"github.com/arcward/edifact/cmd/edifact/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
