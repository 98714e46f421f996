package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/swapwatch/swapwatch/internal/config"
	"github.com/swapwatch/swapwatch/internal/hostenv"
	"github.com/swapwatch/swapwatch/internal/logger"
	"github.com/swapwatch/swapwatch/internal/monitor"
	"github.com/swapwatch/swapwatch/internal/probe"
	"github.com/swapwatch/swapwatch/internal/render"
	"github.com/swapwatch/swapwatch/internal/storage/sqlite"
)

// pruneEvery is how often persisted rows older than the retention
// window are deleted.
const pruneEvery = time.Minute

// newRunCmd creates the run subcommand.
func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the monitor loop in the foreground",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoop()
		},
	}
}

func runLoop() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	level := cfg.Logging.Level
	if debug {
		level = "debug"
	}
	logger.InitLogger(level, cfg.Logging.Path)
	defer logger.Close()
	logger.Info("swapwatch starting", "version", version, "service", cfg.Service.Name)

	prober := probe.New(cfg.Service.BaseURL,
		probe.WithClient(&http.Client{Timeout: cfg.Service.ProbeTimeout}),
		probe.WithSystemSampler(hostenv.NewSystemSampler(cfg.Service.Binary)))

	checker, err := hostenv.New(cfg.Service.Name, cfg.Service.Binary)
	if err != nil {
		return fmt.Errorf("host checker: %w", err)
	}

	mon, err := monitor.New(monitor.Config{
		Capacity:   cfg.History.Capacity,
		Retention:  cfg.History.Retention,
		AgentDwell: monitor.AgentDwell,
	}, logger.Log)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var store *sqlite.Store
	if cfg.Storage.Enabled {
		db, err := sqlite.Open(cfg.Storage.Path)
		if err != nil {
			// Persistence is optional; the monitor runs without it.
			logger.Warn("history persistence disabled", "error", err)
		} else {
			defer db.Close()
			store = sqlite.NewStore(db)
			since := uint64(time.Now().Add(-cfg.History.Retention).Unix())
			if err := store.LoadInto(ctx, mon.History(), since); err != nil {
				logger.Warn("failed to restore history", "error", err)
			}
		}
	}

	renderOpts := render.DefaultOptions()
	renderOpts.NoColor = noColor
	renderer := render.New(os.Stdout, renderOpts)

	lastPrune := time.Now()
	for {
		now := time.Now()
		result, probeErr := prober.Probe()
		status := checker.Check(probeErr == nil)
		mon.Update(now, result, probeErr, status)

		if store != nil {
			if err := store.SaveLatest(ctx, mon.History()); err != nil {
				logger.Warn("failed to persist history", "error", err)
			}
			if now.Sub(lastPrune) >= pruneEvery {
				cutoff := uint64(now.Add(-cfg.History.Retention).Unix())
				if _, err := store.Prune(ctx, cutoff); err != nil {
					logger.Warn("failed to prune history", "error", err)
				}
				lastPrune = now
			}
		}

		fmt.Printf("\033[2J\033[H")
		renderer.Report(mon, now)

		if !sleepUntilNext(ctx, mon.NextInterval()) {
			logger.Info("swapwatch stopping")
			return nil
		}
	}
}

// sleepUntilNext waits for the adaptive poll interval, returning false
// when the context is canceled first.
func sleepUntilNext(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}
