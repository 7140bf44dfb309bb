package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/joseph-ayodele/records-ingest/internal/app"
	"github.com/joseph-ayodele/records-ingest/internal/async"
	"github.com/joseph-ayodele/records-ingest/internal/common"
	"github.com/joseph-ayodele/records-ingest/internal/ingest"
	ingestsvc "github.com/joseph-ayodele/records-ingest/internal/services/ingest"
)

func main() {
	var configPath string
	cmd := &cobra.Command{
		Use:           "recordsd",
		Short:         "Watch the upload folders and extract every new spreadsheet into records",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), configPath)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", os.Getenv("RECORDS_CONFIG"), "path to a YAML config file")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "recordsd: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string) error {
	cfg, err := common.LoadConfig(configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger := cfg.Log.NewLogger()
	slog.SetDefault(logger)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	a, err := app.New(ctx, cfg, logger, reg)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.Store.HealthCheck(ctx, 5*time.Second); err != nil {
		return err
	}

	queue := async.NewProcessorQueue(a.Processor, logger,
		async.WithWorkers(cfg.Ingest.Workers),
		async.WithQueueSize(cfg.Ingest.QueueSize),
		async.WithProcessTimeout(cfg.Ingest.ProcessTimeout),
		async.WithMetrics(a.Metrics),
	)
	svc := ingestsvc.NewService(a.Ingestor, a.Processor, queue, logger)

	if err := os.MkdirAll(cfg.Ingest.WatchRoot, 0o755); err != nil {
		return fmt.Errorf("create watch root: %w", err)
	}
	events, watchErrs, err := ingest.StartWatcher(ctx, ingest.WatchConfig{
		Root:        cfg.Ingest.WatchRoot,
		InitialScan: cfg.Ingest.InitialScan,
		Debounce:    cfg.Ingest.Debounce,
		Logger:      logger,
	})
	if err != nil {
		return err
	}
	go consume(ctx, a.Ingestor, svc, events, watchErrs, logger)

	lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", cfg.Server.GRPCAddr, err)
	}
	grpcServer := grpc.NewServer()
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	reflection.Register(grpcServer)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	metricsServer := &http.Server{Addr: cfg.Server.MetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		logger.Info("records-ingest listening", "grpc_addr", cfg.Server.GRPCAddr, "watch_root", cfg.Ingest.WatchRoot)
		if err := grpcServer.Serve(lis); err != nil {
			logger.Error("gRPC serve error", "error", err)
		}
	}()
	go func() {
		logger.Info("metrics listening", "addr", cfg.Server.MetricsAddr)
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics serve error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_NOT_SERVING)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Ingest.ProcessTimeout)
	defer cancel()
	queue.Shutdown(shutdownCtx)
	_ = metricsServer.Shutdown(shutdownCtx)
	grpcServer.GracefulStop()
	return nil
}

// consume admits each watched file and queues it for extraction.
func consume(
	ctx context.Context,
	ing ingest.Ingestor,
	svc *ingestsvc.Service,
	events <-chan ingest.FileEvent,
	errs <-chan error,
	logger *slog.Logger,
) {
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			res, err := ing.IngestPath(ctx, ev.Category, ev.Path)
			if err != nil {
				logger.Warn("watch.ingest.failed", "path", ev.Path, "category", ev.Category, "error", err)
				continue
			}
			if _, err := svc.ProcessIngestedFile(ctx, &res); err != nil {
				logger.Error("watch.enqueue.failed", "path", ev.Path, "file_id", res.FileID, "error", err)
			}
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			logger.Warn("watcher reported an error", "error", err)
		}
	}
}
