package cmd

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/salewatch/salewatch/internal/metrics"
)

// newCrawlCommand returns the crawl command, which runs exactly one crawl
// cycle and exits.
func newCrawlCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "crawl",
		Short: "Run one crawl cycle and exit",
		RunE:  runCrawl,
	}
}

func runCrawl(cmd *cobra.Command, _ []string) error {
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

	// One-shot run: counters live only until exit. The schedule command
	// is the one that serves them for scraping.
	m := metrics.New(prometheus.NewRegistry())
	orchestrator := buildOrchestrator(deps, db, sink, m)

	if cycleErr := orchestrator.RunCycle(ctx); cycleErr != nil {
		return fmt.Errorf("crawl cycle: %w", cycleErr)
	}

	return nil
}
