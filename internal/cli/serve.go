package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/funnel-analyzer/internal/api"
)

const shutdownTimeout = 30 * time.Second

var (
	serveSource  string
	serveCSVPath string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the funnel analysis HTTP API",
	Long: `Run the HTTP API. It exposes on-demand classification, full analysis
over a date range against the configured event source, the active stage
rules, health checks and Prometheus metrics.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveSource, "source", "db", "event source for /analyze: csv, db, api or es")
	serveCmd.Flags().StringVar(&serveCSVPath, "input", "events.csv", "events CSV path (source=csv)")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	defer func() { _ = a.logger.Sync() }()

	src, cleanup, err := a.eventSource(serveSource, serveCSVPath)
	if err != nil {
		return err
	}
	defer cleanup()

	handler := api.NewHandler(a.runner(src), a.batch, a.cfg.Funnel, a.calculator, a.logger)
	server := api.NewServer(handler, a.telemetry.Handler(), a.cfg.Service.Port, a.cfg.Service.Debug, a.logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		a.logger.Info("shutdown signal received", "signal", sig.String())
	case <-cmd.Context().Done():
		a.logger.Info("context cancelled, shutting down")
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(ctx)
}
