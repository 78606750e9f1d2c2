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

	"github.com/careeyes/fod/internal/api"
	"github.com/careeyes/fod/internal/cache"
	"github.com/careeyes/fod/internal/config"
	"github.com/careeyes/fod/internal/ingest"
	"github.com/careeyes/fod/internal/observability"
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
	slog.Info("starting CareEyes stream proxy", "port", cfg.StreamProxy.Port)

	var urlCache ingest.URLCache
	if rc, err := cache.NewRedisCache(cfg.Redis); err != nil {
		slog.Warn("redis unavailable, stream urls will not be cached", "error", err)
	} else {
		urlCache = rc
		defer rc.Close()
	}

	resolver := ingest.NewResolver(cfg.Ingest.YtDlpPath, ingest.FormatHLS, urlCache, cfg.StreamProxy.CacheTTL)
	router := api.NewStreamProxyRouter(cfg.Server.AllowedOrigins, resolver, cfg.StreamProxy.RateLimit, cfg.StreamProxy.Burst)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.StreamProxy.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second, // yt-dlp can be slow
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("stream proxy listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down stream proxy...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}
	slog.Info("stream proxy stopped")
}
