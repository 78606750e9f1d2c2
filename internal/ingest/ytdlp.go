package ingest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/careeyes/fod/internal/observability"
)

const (
	// FormatFeed picks a stream ffmpeg can sample.
	FormatFeed = "best[height<=1080]"
	// FormatHLS restricts resolution to HLS playlists for browser playback.
	FormatHLS = "best[protocol^=m3u8]"
)

// ErrNoStream means the link resolved but offers no stream in the requested format.
var ErrNoStream = errors.New("no playable stream for url")

// Runner executes an external command and returns its stdout.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

// URLCache stores resolved stream URLs. Resolved links expire upstream, so
// entries always carry a TTL.
type URLCache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

// Resolver turns a video page link into a direct stream URL with yt-dlp.
type Resolver struct {
	Binary string
	Format string
	Run    Runner
	Cache  URLCache
	TTL    time.Duration
}

func NewResolver(binary, format string, cache URLCache, ttl time.Duration) *Resolver {
	if binary == "" {
		binary = "yt-dlp"
	}
	return &Resolver{Binary: binary, Format: format, Run: execRunner, Cache: cache, TTL: ttl}
}

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return out, fmt.Errorf("%w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return out, nil
}

// Resolve returns the first URL yt-dlp prints for videoURL.
func (r *Resolver) Resolve(ctx context.Context, videoURL string) (string, error) {
	key := "stream-url:" + r.Format + ":" + videoURL
	if r.Cache != nil {
		if url, ok, err := r.Cache.Get(ctx, key); err != nil {
			slog.Warn("stream url cache read failed", "error", err)
		} else if ok {
			observability.StreamResolutions.WithLabelValues("cache_hit").Inc()
			return url, nil
		}
	}

	start := time.Now()
	output, err := r.Run(ctx, r.Binary,
		"--get-url",
		"--format", r.Format,
		"--no-playlist",
		videoURL,
	)
	observability.ResolveDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		if isFormatUnavailable(err) {
			observability.StreamResolutions.WithLabelValues("not_found").Inc()
			return "", ErrNoStream
		}
		observability.StreamResolutions.WithLabelValues("error").Inc()
		return "", fmt.Errorf("yt-dlp failed: %w", err)
	}

	// yt-dlp may return multiple lines (video + audio URLs); use only the first
	raw := strings.TrimSpace(string(output))
	url := strings.TrimSpace(strings.SplitN(raw, "\n", 2)[0])
	if url == "" {
		observability.StreamResolutions.WithLabelValues("not_found").Inc()
		return "", ErrNoStream
	}
	observability.StreamResolutions.WithLabelValues("resolved").Inc()

	if r.Cache != nil {
		if err := r.Cache.Set(ctx, key, url, r.TTL); err != nil {
			slog.Warn("stream url cache write failed", "error", err)
		}
	}
	return url, nil
}

func isFormatUnavailable(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "Requested format is not available") ||
		strings.Contains(msg, "No video formats found")
}
