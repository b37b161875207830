package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/salewatch/salewatch/internal/logger"
	"github.com/salewatch/salewatch/internal/metrics"
)

// newScheduleCommand returns the schedule command, which runs crawl
// cycles on a cron schedule until interrupted.
func newScheduleCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "schedule",
		Short: "Run crawl cycles on a cron schedule",
		Long: `Run crawl cycles on the cron schedule from configuration until
interrupted with Ctrl+C. Overlapping cycles are skipped.`,
		RunE: runSchedule,
	}
}

func runSchedule(cmd *cobra.Command, _ []string) error {
	deps, err := newCommandDeps()
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := openDatabase(ctx, deps.Config)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	sink, err := buildSink(deps.Config, deps.Logger)
	if err != nil {
		return err
	}

	// Pipeline counters accumulate across cycles on one registry, served
	// over HTTP so a scraper can read them between cycles.
	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	metricsServer := startMetricsServer(
		deps.Config.Server.MetricsAddress, registry, deps.Logger,
	)
	defer stopMetricsServer(metricsServer, deps.Logger)

	// running guards against overlapping cycles when one overruns the
	// schedule interval.
	var running atomic.Bool

	runOnce := func() {
		if !running.CompareAndSwap(false, true) {
			deps.Logger.Warn("previous crawl cycle still running, skipping")
			return
		}
		defer running.Store(false)

		// The gate's notification counter is cycle state, so each cycle
		// gets a fresh orchestrator.
		orchestrator := buildOrchestrator(deps, db, sink, m)
		if cycleErr := orchestrator.RunCycle(ctx); cycleErr != nil && ctx.Err() == nil {
			deps.Logger.Error("crawl cycle failed", "error", cycleErr)
		}
	}

	scheduler := cron.New()
	if _, addErr := scheduler.AddFunc(deps.Config.Crawler.Schedule, runOnce); addErr != nil {
		return fmt.Errorf("invalid schedule %q: %w", deps.Config.Crawler.Schedule, addErr)
	}

	deps.Logger.Info("scheduler started", "schedule", deps.Config.Crawler.Schedule)
	scheduler.Start()

	<-ctx.Done()

	deps.Logger.Info("shutdown signal received")
	waitForCron(scheduler)

	deps.Logger.Info("scheduler stopped")
	return nil
}

// waitForCron stops the cron runner and waits for in-flight jobs.
func waitForCron(scheduler *cron.Cron) {
	stopCtx := scheduler.Stop()
	<-stopCtx.Done()
}

// startMetricsServer serves the registry on /metrics. Returns nil when
// the address is empty.
func startMetricsServer(
	addr string,
	gatherer prometheus.Gatherer,
	log logger.Interface,
) *http.Server {
	if addr == "" {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(gatherer))

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		log.Info("metrics server started", "address", addr)
		if err := server.ListenAndServe(); err != nil &&
			!errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server failed", "error", err)
		}
	}()

	return server
}

// stopMetricsServer shuts the metrics listener down gracefully.
func stopMetricsServer(server *http.Server, log logger.Interface) {
	if server == nil {
		return
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("metrics server shutdown failed", "error", err)
	}
}
