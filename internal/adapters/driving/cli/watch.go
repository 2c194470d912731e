package cli

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/veridian-labs/reguard/internal/adapters/driving/feed/fsdir"
	"github.com/veridian-labs/reguard/internal/logger"
	"github.com/veridian-labs/reguard/internal/metrics"
)

var watchCmd = &cobra.Command{
	Use:   "watch [directory]",
	Short: "Watch a directory and ingest documents as they change",
	Long: `Ingests every recognised file in the directory, then watches for
new and modified files and streams them through the pipeline until
interrupted. When [metrics].listen is configured, a Prometheus endpoint
is served at /metrics for the lifetime of the watch.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.close()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := a.reindex(ctx); err != nil {
		return err
	}
	if err := a.pipeline.Start(ctx); err != nil {
		return err
	}
	defer a.pipeline.Stop()

	var metricsServer *http.Server
	if cfg.Metrics.Listen != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		metricsServer = &http.Server{Addr: cfg.Metrics.Listen, Handler: mux}
		go func() {
			logger.Info("Metrics listening on %s", cfg.Metrics.Listen)
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("Metrics server: %v", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = metricsServer.Shutdown(shutdownCtx)
		}()
	}

	watcher, err := fsdir.New(a.pipeline, args[0])
	if err != nil {
		return err
	}
	n, err := watcher.SubmitExisting(ctx)
	if err != nil {
		return err
	}
	cmd.Printf("Submitted %d existing documents, watching %s\n", n, args[0])

	if err := watcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	cmd.Println("Stopping.")
	return nil
}
