package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"

	"github.com/careeyes/fod/internal/cache"
	"github.com/careeyes/fod/internal/config"
	"github.com/careeyes/fod/internal/ingest"
	"github.com/careeyes/fod/internal/observability"
	"github.com/careeyes/fod/internal/queue"
	"github.com/careeyes/fod/internal/storage"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to config file")
	metricsAddr := flag.String("metrics-addr", ":8081", "metrics listen address")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	observability.SetupLogger(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting CareEyes ingestor", "fps", cfg.Ingest.FPS, "retention", cfg.Ingest.Retention.String())

	// Connect to Postgres (for CCTV activate flags)
	db, err := storage.NewPostgresStore(cfg.Database)
	if err != nil {
		slog.Error("connect to postgres", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Connect to MinIO
	minioStore, err := storage.NewMinIOStore(cfg.MinIO)
	if err != nil {
		slog.Error("connect to minio", "error", err)
		os.Exit(1)
	}
	if err := minioStore.EnsureBucket(context.Background()); err != nil {
		slog.Warn("ensure minio bucket", "error", err)
	}

	// Connect to NATS
	producer, err := queue.NewProducer(cfg.NATS.URL)
	if err != nil {
		slog.Error("connect to nats", "error", err)
		os.Exit(1)
	}
	defer producer.Close()

	if err := producer.EnsureStreams(context.Background()); err != nil {
		slog.Warn("ensure nats streams", "error", err)
	}

	var urlCache ingest.URLCache
	if rc, err := cache.NewRedisCache(cfg.Redis); err != nil {
		slog.Warn("redis unavailable, stream urls will not be cached", "error", err)
	} else {
		urlCache = rc
		defer rc.Close()
	}
	resolver := ingest.NewResolver(cfg.Ingest.YtDlpPath, ingest.FormatFeed, urlCache, cfg.StreamProxy.CacheTTL)

	manager := ingest.NewManager(producer, minioStore, db, resolver, cfg.Ingest)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Feed start/stop commands from the API
	consumer, err := queue.NewConsumer(cfg.NATS.URL)
	if err != nil {
		slog.Error("create consumer", "error", err)
		os.Exit(1)
	}
	defer consumer.Close()

	sub, err := consumer.SubscribeControl(func(cmd queue.ControlCommand) {
		slog.Info("received command", "action", cmd.Action, "cctv_id", cmd.CCTVID)
		if err := manager.HandleCommand(ctx, cmd); err != nil {
			slog.Error("handle command", "error", err, "action", cmd.Action, "cctv_id", cmd.CCTVID)
		}
	})
	if err != nil {
		slog.Error("subscribe to control", "error", err)
		os.Exit(1)
	}
	defer sub.Unsubscribe()

	// Frame retention
	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.Ingest.CleanupSchedule, func() {
		n, err := manager.Cleanup(ctx)
		if err != nil {
			slog.Warn("frame cleanup failed", "error", err)
			return
		}
		if n > 0 {
			slog.Info("frame cleanup: deleted old frames", "deleted", n)
		}
	}); err != nil {
		slog.Error("schedule frame cleanup", "schedule", cfg.Ingest.CleanupSchedule, "error", err)
		os.Exit(1)
	}
	if _, err := scheduler.AddFunc("@every 15s", func() {
		depth, err := producer.QueueDepth(ctx)
		if err != nil {
			slog.Debug("frame queue depth", "error", err)
			return
		}
		observability.FrameQueueDepth.Set(float64(depth))
	}); err != nil {
		slog.Error("schedule queue depth sampling", "error", err)
		os.Exit(1)
	}
	scheduler.Start()

	// Metrics endpoint
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"status":"ok"}`))
		})
		slog.Info("ingestor metrics listening", "addr", *metricsAddr)
		if err := http.ListenAndServe(*metricsAddr, mux); err != nil {
			slog.Error("metrics server error", "error", err)
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down ingestor...")
	<-scheduler.Stop().Done()
	manager.StopAll()

	// Give feeds time to mark themselves inactive before the context goes
	deadline := time.Now().Add(10 * time.Second)
	for manager.ActiveCount() > 0 && time.Now().Before(deadline) {
		time.Sleep(100 * time.Millisecond)
	}
	cancel()
	slog.Info("ingestor stopped")
}
