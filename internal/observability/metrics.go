package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	FramesExtracted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "careeyes",
		Name:      "frames_extracted_total",
		Help:      "Total number of frames extracted from CCTV feeds",
	}, []string{"cctv_id"})

	DetectionsIngested = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "careeyes",
		Name:      "detections_ingested_total",
		Help:      "Total number of detections received from the detector",
	}, []string{"source"})

	EventPolls = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "careeyes",
		Name:      "event_polls_total",
		Help:      "Event source polls by outcome",
	}, []string{"result"})

	SnapshotSize = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "careeyes",
		Name:      "snapshot_events",
		Help:      "Number of events in the current dashboard snapshot",
	})

	FrameQueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "careeyes",
		Name:      "frame_queue_depth",
		Help:      "Frame tasks waiting in the FRAMES stream",
	})

	ActiveFeeds = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "careeyes",
		Name:      "active_feeds",
		Help:      "Number of CCTV feeds currently being ingested",
	})

	StreamResolutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "careeyes",
		Name:      "stream_resolutions_total",
		Help:      "Stream URL resolutions by result",
	}, []string{"result"})

	ResolveDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "careeyes",
		Name:      "stream_resolve_duration_seconds",
		Help:      "Duration of yt-dlp stream URL resolution",
		Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
	})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "careeyes",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	WSConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "careeyes",
		Name:      "ws_connections",
		Help:      "Number of active WebSocket connections",
	})
)
