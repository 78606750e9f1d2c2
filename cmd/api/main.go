package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/careeyes/fod/internal/api"
	"github.com/careeyes/fod/internal/api/handlers"
	"github.com/careeyes/fod/internal/api/ws"
	"github.com/careeyes/fod/internal/auth"
	"github.com/careeyes/fod/internal/cache"
	"github.com/careeyes/fod/internal/config"
	"github.com/careeyes/fod/internal/eventsource"
	"github.com/careeyes/fod/internal/ingest"
	"github.com/careeyes/fod/internal/models"
	"github.com/careeyes/fod/internal/observability"
	"github.com/careeyes/fod/internal/queue"
	"github.com/careeyes/fod/internal/storage"
	"github.com/careeyes/fod/pkg/dto"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	observability.SetupLogger(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("starting CareEyes API service", "port", cfg.Server.Port, "event_source", cfg.EventSource.Mode)

	sessions, err := auth.NewSessionManager(cfg.Auth)
	if err != nil {
		slog.Error("session manager", "error", err)
		os.Exit(1)
	}

	// Connect to Postgres
	db, err := storage.NewPostgresStore(cfg.Database)
	if err != nil {
		slog.Error("connect to postgres", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.EnsureSchema(context.Background()); err != nil {
		slog.Error("ensure schema", "error", err)
		os.Exit(1)
	}

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

	// Resolved stream URLs are cached when Redis is reachable
	var urlCache ingest.URLCache
	ready := map[string]handlers.Pinger{}
	if rc, err := cache.NewRedisCache(cfg.Redis); err != nil {
		slog.Warn("redis unavailable, stream urls will not be cached", "error", err)
	} else {
		urlCache = rc
		ready["redis"] = rc
		defer rc.Close()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// WebSocket hub
	hub := ws.NewHub()
	go hub.Run(ctx)

	// Dashboard snapshot, refreshed from the configured source
	snapshot := eventsource.NewSnapshot()
	var (
		source   eventsource.Source
		statuses eventsource.StatusUpdater
	)
	switch cfg.EventSource.Mode {
	case "http":
		src := eventsource.NewHTTPSource(cfg.EventSource)
		source, statuses = src, src
	default:
		src := eventsource.NewStoreSource(db, cfg.EventSource.Timeout)
		source, statuses = src, src
	}
	poller := eventsource.NewPoller(source, snapshot, cfg.EventSource.PollInterval)
	if err := poller.Start(ctx); err != nil {
		slog.Error("start event poller", "error", err)
		os.Exit(1)
	}
	defer poller.Stop()

	// Store detector reports and push them to live clients
	consumer, err := queue.NewConsumer(cfg.NATS.URL)
	if err != nil {
		slog.Error("create detection consumer", "error", err)
		os.Exit(1)
	}
	defer consumer.Close()

	err = consumer.ConsumeDetections(ctx, "api-detections", func(ctx context.Context, d models.Detection) error {
		ev, err := db.CreateDetection(ctx, d)
		if err != nil {
			if errors.Is(err, storage.ErrInvalidDetection) {
				return fmt.Errorf("%w: %v", queue.ErrDropDetection, err)
			}
			return fmt.Errorf("store detection: %w", err)
		}
		observability.DetectionsIngested.WithLabelValues("queue").Inc()
		if ev == nil {
			poller.Trigger()
			return nil
		}

		snapshot.Add(*ev)
		hub.BroadcastEvent(&dto.WSEvent{
			Type:   dto.WSTypeDetection,
			CCTVID: ev.CCTVID,
			Data:   dto.NewEventResponse(*ev),
		})
		slog.Info("detection stored", "event_id", ev.ID, "cctv_id", ev.CCTVID, "item_type", ev.ItemType)
		return nil
	})
	if err != nil {
		slog.Warn("start detection consumer", "error", err)
	}

	ready["postgres"] = db
	ready["minio"] = minioStore
	ready["nats"] = handlers.PingFunc(func(context.Context) error { return producer.Ping() })

	// Setup router
	router := api.NewRouter(api.RouterConfig{
		APIKey:          cfg.Server.APIKey,
		AllowedOrigins:  cfg.Server.AllowedOrigins,
		CCTVFPS:         cfg.Ingest.FPS,
		DB:              db,
		MinIO:           minioStore,
		Producer:        producer,
		Hub:             hub,
		Snapshot:        snapshot,
		Statuses:        statuses,
		Sessions:        sessions,
		Streams:         ingest.NewResolver(cfg.Ingest.YtDlpPath, ingest.FormatHLS, urlCache, cfg.StreamProxy.CacheTTL),
		Clock:           handlers.ClockIn(cfg.Location()),
		StreamRateLimit: cfg.StreamProxy.RateLimit,
		StreamBurst:     cfg.StreamProxy.Burst,
		Ready:           ready,
	})

	// Start HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("API server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down API server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	slog.Info("API server stopped")
}
