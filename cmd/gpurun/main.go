package main

import (
	"os"

	"github.com/gpurun/gpurun/cmd/gpurun/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
