package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/careeyes/fod/internal/config"
	"github.com/careeyes/fod/internal/models"
	"github.com/careeyes/fod/internal/observability"
	"github.com/careeyes/fod/internal/queue"
)

// FramePublisher hands frame tasks to the detector.
type FramePublisher interface {
	PublishFrame(ctx context.Context, task models.FrameTask) error
}

// FrameStore persists extracted frames.
type FrameStore interface {
	PutObject(ctx context.Context, key string, data []byte, contentType string) error
	ListObjectsBefore(ctx context.Context, prefix string, cutoff time.Time) ([]string, error)
	DeleteObjects(ctx context.Context, keys []string) error
}

// FeedRegistry records which CCTVs are being sampled.
type FeedRegistry interface {
	UpdateCCTVActivate(ctx context.Context, id string, active bool) error
}

// URLResolver maps a video page link to a direct stream URL.
type URLResolver interface {
	Resolve(ctx context.Context, videoURL string) (string, error)
}

type frameExtractor interface {
	StartExtraction(ctx context.Context, streamURL string, fps, width int, callback FrameCallback) error
	Stop()
}

type activeFeed struct {
	cancel    context.CancelFunc
	extractor frameExtractor
}

// FramePrefix is the object key prefix of every stored CCTV frame.
const FramePrefix = "cctv/"

// LatestFrameKey is the object holding the most recent frame of a CCTV.
func LatestFrameKey(cctvID string) string {
	return FramePrefix + cctvID + "/latest.jpg"
}

// Manager runs one extraction loop per active CCTV feed.
type Manager struct {
	publisher FramePublisher
	frames    FrameStore
	registry  FeedRegistry
	resolver  URLResolver
	cfg       config.IngestConfig

	newExtractor func() frameExtractor
	retryDelay   func(attempt int) time.Duration
	now          func() time.Time

	mu    sync.RWMutex
	feeds map[string]*activeFeed
}

func NewManager(publisher FramePublisher, frames FrameStore, registry FeedRegistry, resolver URLResolver, cfg config.IngestConfig) *Manager {
	return &Manager{
		publisher: publisher,
		frames:    frames,
		registry:  registry,
		resolver:  resolver,
		cfg:       cfg,
		newExtractor: func() frameExtractor {
			return &FFmpegExtractor{Binary: cfg.FFmpegPath}
		},
		retryDelay: func(attempt int) time.Duration {
			return time.Duration(1<<uint(min(attempt, 5))) * time.Second // 2s .. 32s
		},
		now:   time.Now,
		feeds: make(map[string]*activeFeed),
	}
}

// HandleCommand processes a feed control command.
func (m *Manager) HandleCommand(ctx context.Context, cmd queue.ControlCommand) error {
	switch cmd.Action {
	case "start":
		return m.startFeed(ctx, cmd)
	case "stop":
		return m.stopFeed(cmd.CCTVID)
	default:
		return fmt.Errorf("unknown action: %s", cmd.Action)
	}
}

func (m *Manager) streamURL(ctx context.Context, cmd queue.ControlCommand) (string, error) {
	if cmd.StreamType != models.StreamTypeYouTube {
		return cmd.StreamURL, nil
	}
	resolved, err := m.resolver.Resolve(ctx, cmd.StreamURL)
	if err != nil {
		return "", fmt.Errorf("resolve stream url: %w", err)
	}
	return resolved, nil
}

func (m *Manager) startFeed(ctx context.Context, cmd queue.ControlCommand) error {
	if cmd.CCTVID == "" || cmd.StreamURL == "" {
		return fmt.Errorf("start feed: cctv id and stream url are required")
	}

	m.mu.Lock()
	if _, exists := m.feeds[cmd.CCTVID]; exists {
		m.mu.Unlock()
		return fmt.Errorf("cctv %s already running", cmd.CCTVID)
	}
	feedCtx, cancel := context.WithCancel(ctx)
	feed := &activeFeed{cancel: cancel, extractor: m.newExtractor()}
	m.feeds[cmd.CCTVID] = feed
	m.mu.Unlock()

	fps := cmd.FPS
	if fps <= 0 {
		fps = m.cfg.FPS
	}

	observability.ActiveFeeds.Inc()
	m.setActive(cmd.CCTVID, true)
	slog.Info("starting cctv ingestion", "cctv_id", cmd.CCTVID, "url", cmd.StreamURL, "fps", fps)

	go m.run(feedCtx, cmd, feed, fps)
	return nil
}

// run retries extraction with exponential backoff, re-resolving expiring
// YouTube URLs before each attempt.
func (m *Manager) run(ctx context.Context, cmd queue.ControlCommand, feed *activeFeed, fps int) {
	defer func() {
		m.mu.Lock()
		delete(m.feeds, cmd.CCTVID)
		m.mu.Unlock()
		observability.ActiveFeeds.Dec()
		m.setActive(cmd.CCTVID, false)
		slog.Info("cctv ingestion stopped", "cctv_id", cmd.CCTVID)
	}()

	for attempt := 0; attempt <= m.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := m.retryDelay(attempt)
			slog.Warn("retrying cctv extraction", "cctv_id", cmd.CCTVID, "attempt", attempt, "delay", delay)
			select {
			case <-ctx.Done():
				return
			case <-time.After(delay):
			}
			extractor := m.newExtractor()
			m.mu.Lock()
			feed.extractor = extractor
			m.mu.Unlock()
		}

		url, err := m.streamURL(ctx, cmd)
		if err != nil {
			slog.Warn("stream url resolution failed", "cctv_id", cmd.CCTVID, "error", err)
			continue
		}

		m.mu.RLock()
		extractor := feed.extractor
		m.mu.RUnlock()

		err = extractor.StartExtraction(ctx, url, fps, m.cfg.FrameWidth, func(frame []byte) error {
			return m.handleFrame(ctx, cmd.CCTVID, frame)
		})
		if err == nil || ctx.Err() != nil {
			return
		}
		slog.Error("cctv extraction failed", "cctv_id", cmd.CCTVID, "attempt", attempt, "error", err)
	}
	slog.Error("cctv feed failed after retries", "cctv_id", cmd.CCTVID, "retries", m.cfg.MaxRetries)
}

// handleFrame stores a frame, refreshes the CCTV's latest frame and queues it
// for detection.
func (m *Manager) handleFrame(ctx context.Context, cctvID string, frame []byte) error {
	frameID := uuid.New()
	key := fmt.Sprintf("%s%s/%s.jpg", FramePrefix, cctvID, frameID)
	if err := m.frames.PutObject(ctx, key, frame, "image/jpeg"); err != nil {
		return fmt.Errorf("upload frame: %w", err)
	}
	if err := m.frames.PutObject(ctx, LatestFrameKey(cctvID), frame, "image/jpeg"); err != nil {
		return fmt.Errorf("upload latest frame: %w", err)
	}

	task := models.FrameTask{
		CCTVID:    cctvID,
		FrameID:   frameID,
		Timestamp: m.now(),
		FrameRef:  key,
		Width:     m.cfg.FrameWidth,
	}
	if err := m.publisher.PublishFrame(ctx, task); err != nil {
		return fmt.Errorf("publish frame task: %w", err)
	}

	observability.FramesExtracted.WithLabelValues(cctvID).Inc()
	return nil
}

func (m *Manager) stopFeed(cctvID string) error {
	m.mu.RLock()
	feed, exists := m.feeds[cctvID]
	var extractor frameExtractor
	if exists {
		extractor = feed.extractor
	}
	m.mu.RUnlock()

	if !exists {
		return nil // Already stopped
	}

	extractor.Stop()
	feed.cancel()

	slog.Info("stop command sent", "cctv_id", cctvID)
	return nil
}

func (m *Manager) setActive(cctvID string, active bool) {
	if m.registry == nil {
		return
	}
	if err := m.registry.UpdateCCTVActivate(context.Background(), cctvID, active); err != nil {
		slog.Error("update cctv activate", "cctv_id", cctvID, "error", err)
	}
}

// Cleanup deletes stored frames older than the retention window. The latest
// frame of each CCTV is kept.
func (m *Manager) Cleanup(ctx context.Context) (int, error) {
	cutoff := m.now().Add(-m.cfg.Retention)
	keys, err := m.frames.ListObjectsBefore(ctx, FramePrefix, cutoff)
	if err != nil {
		return 0, fmt.Errorf("list old frames: %w", err)
	}
	old := keys[:0]
	for _, k := range keys {
		if !strings.HasSuffix(k, "/latest.jpg") {
			old = append(old, k)
		}
	}
	if err := m.frames.DeleteObjects(ctx, old); err != nil {
		return 0, fmt.Errorf("delete old frames: %w", err)
	}
	return len(old), nil
}

// ActiveCount returns the number of currently running feeds.
func (m *Manager) ActiveCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.feeds)
}

// StopAll stops all running feeds.
func (m *Manager) StopAll() {
	m.mu.RLock()
	ids := make([]string, 0, len(m.feeds))
	for id := range m.feeds {
		ids = append(ids, id)
	}
	m.mu.RUnlock()

	for _, id := range ids {
		_ = m.stopFeed(id)
	}
}
