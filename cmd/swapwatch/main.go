package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	// Version info (set by ldflags)
	version = "dev"

	// Flags
	noColor bool
	debug   bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "swapwatch",
		Short: "Adaptive monitor for a local llama-swap service",
		Long: `swapwatch watches a local llama-swap instance: the service process,
its API, the loaded models, and their throughput. It polls adaptively,
keeps a bounded metric history, and renders a live status report.

Commands:
  swapwatch run            Run the monitor loop in the foreground
  swapwatch status         Print a one-shot status and exit`,
		Version: version,
	}

	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(
		newRunCmd(),
		newStatusCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		// Error already printed by cobra
		os.Exit(1)
	}
}
