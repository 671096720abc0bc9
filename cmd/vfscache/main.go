package main

import (
	"os"

	"github.com/hollowlog/vfscache/cmd/vfscache/commands"

	// Import prometheus metrics to register constructors
	_ "github.com/hollowlog/vfscache/pkg/metrics/prometheus"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
