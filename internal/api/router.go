package api

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/careeyes/fod/internal/api/handlers"
	"github.com/careeyes/fod/internal/api/ws"
	"github.com/careeyes/fod/internal/auth"
	"github.com/careeyes/fod/internal/eventsource"
	"github.com/careeyes/fod/internal/queue"
	"github.com/careeyes/fod/internal/storage"
)

type RouterConfig struct {
	APIKey         string
	AllowedOrigins []string
	CCTVFPS        int

	DB       *storage.PostgresStore
	MinIO    *storage.MinIOStore
	Producer *queue.Producer
	Hub      *ws.Hub
	Snapshot *eventsource.Snapshot
	Statuses eventsource.StatusUpdater
	Sessions *auth.SessionManager
	Streams  handlers.StreamResolver
	Clock    handlers.Clock

	StreamRateLimit float64
	StreamBurst     int
	Ready           map[string]handlers.Pinger
}

func corsConfig(origins []string) cors.Config {
	return cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-API-Key"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(LoggingMiddleware())
	r.Use(cors.New(corsConfig(cfg.AllowedOrigins)))

	// System endpoints (no auth)
	systemH := handlers.NewSystemHandler(cfg.Ready)
	r.GET("/healthz", systemH.Healthz)
	r.GET("/readyz", systemH.Readyz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	api.GET("/data", systemH.Data)

	// WebSocket
	api.GET("/ws", cfg.Hub.HandleWS)

	// Events
	statuses := cfg.Statuses
	if statuses == nil {
		statuses = eventsource.NewStoreSource(cfg.DB, 0)
	}
	eventH := handlers.NewEventHandler(cfg.DB, statuses, cfg.MinIO, cfg.Snapshot, cfg.Hub, cfg.Clock)
	api.GET("/eventlist", eventH.EventList)
	api.GET("/filteredeventlist", eventH.FilteredEventList)
	api.GET("/events", eventH.Query)
	api.GET("/events/:id/image", eventH.Image)
	api.PATCH("/event/:id/status", eventH.UpdateStatus)

	// Analytics
	analyticsH := handlers.NewAnalyticsHandler(cfg.Snapshot, cfg.Clock)
	api.GET("/analytics/ratio", analyticsH.Ratio)
	api.GET("/analytics/trend", analyticsH.Trend)
	api.GET("/analytics/frequency", analyticsH.Frequency)
	api.GET("/analytics/summary", analyticsH.Summary)

	// Members
	memberH := handlers.NewMemberHandler(cfg.DB, cfg.Sessions)
	member := api.Group("/member")
	member.POST("/signup", memberH.Signup)
	member.POST("/login", memberH.Login)
	member.POST("/duplicate", memberH.Duplicate)
	member.POST("/logout", memberH.Logout)
	member.POST("/validate", memberH.Validate)
	member.GET("/workerlist", memberH.WorkerList)
	member.POST("/account/link-kakao", cfg.Sessions.RequireSession(), memberH.LinkKakao)

	// CCTV
	cctvH := handlers.NewCCTVHandler(cfg.DB, cfg.Producer, cfg.MinIO, cfg.CCTVFPS)
	api.GET("/cctv", cctvH.List)
	api.POST("/cctv/:id/start", cctvH.Start)
	api.POST("/cctv/:id/stop", cctvH.Stop)
	api.GET("/cctv/:id/snapshot", cctvH.Snapshot)

	// Stream URL resolution
	streamH := handlers.NewStreamHandler(cfg.Streams, cfg.StreamRateLimit, cfg.StreamBurst)
	api.GET("/youtube-m3u8", streamH.Resolve)

	// Detector intake (API key)
	detectH := handlers.NewDetectHandler(cfg.Producer, cfg.Clock)
	ai := api.Group("/ai")
	ai.Use(auth.RequireDetectorKey(cfg.APIKey))
	ai.POST("/detect", detectH.Detect)

	return r
}

// NewStreamProxyRouter serves only the stream URL resolver.
func NewStreamProxyRouter(origins []string, resolver handlers.StreamResolver, limit float64, burst int) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(LoggingMiddleware())
	r.Use(cors.New(corsConfig(origins)))

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	streamH := handlers.NewStreamHandler(resolver, limit, burst)
	r.GET("/api/youtube-m3u8", streamH.Resolve)
	return r
}
