package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/swapwatch/swapwatch/internal/config"
	"github.com/swapwatch/swapwatch/internal/hostenv"
	"github.com/swapwatch/swapwatch/internal/monitor"
	"github.com/swapwatch/swapwatch/internal/probe"
)

// Exit codes for the status subcommand.
const (
	exitRunning      = 0
	exitStopped      = 2
	exitNotInstalled = 3
)

// newStatusCmd creates the status subcommand.
func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print a one-shot status and exit",
		Long: `Probe the service once and print its status. The exit code reflects
the result: 0 running, 2 stopped, 3 not installed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			checker, err := hostenv.New(cfg.Service.Name, cfg.Service.Binary)
			if err != nil {
				return fmt.Errorf("host checker: %w", err)
			}

			prober := probe.New(cfg.Service.BaseURL,
				probe.WithClient(&http.Client{Timeout: cfg.Service.ProbeTimeout}))
			result, probeErr := prober.Probe()
			status := checker.Check(probeErr == nil)

			fmt.Printf("%s: %s\n", cfg.Service.Name, status.Description())
			if probeErr == nil {
				for _, entity := range result.Entities {
					fmt.Printf("  %-24s %s\n", entity.Name, monitor.ParseEntityState(entity.State))
				}
				if len(result.Entities) == 0 {
					fmt.Println("  no models loaded")
				}
			}

			switch {
			case status.ProcessAlive:
				os.Exit(exitRunning)
			case status.Registered:
				os.Exit(exitStopped)
			default:
				os.Exit(exitNotInstalled)
			}
			return nil
		},
	}
}
