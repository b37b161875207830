package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/salewatch/salewatch/internal/api"
	"github.com/salewatch/salewatch/internal/database"
)

const (
	defaultShutdownTimeout = 30 * time.Second
	readHeaderTimeout      = 10 * time.Second
)

// newHTTPDCommand returns the httpd command, which serves the read API.
func newHTTPDCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "httpd",
		Short: "Serve the product read API",
		RunE:  runHTTPD,
	}
}

func runHTTPD(cmd *cobra.Command, _ []string) error {
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

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	router := api.NewRouter(api.Params{
		Repo:     database.NewProductRepository(db),
		Logger:   deps.Logger,
		Gatherer: registry,
	})

	server := &http.Server{
		Addr:              deps.Config.Server.Address,
		Handler:           router,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errChan := make(chan error, 1)
	go func() {
		deps.Logger.Info("http server started", "address", server.Addr)
		if serveErr := server.ListenAndServe(); serveErr != nil &&
			!errors.Is(serveErr, http.ErrServerClosed) {
			errChan <- serveErr
		}
	}()

	select {
	case serveErr := <-errChan:
		return fmt.Errorf("http server: %w", serveErr)
	case <-ctx.Done():
		deps.Logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
	defer cancel()

	if shutdownErr := server.Shutdown(shutdownCtx); shutdownErr != nil {
		return fmt.Errorf("http server shutdown: %w", shutdownErr)
	}

	deps.Logger.Info("http server stopped")
	return nil
}
