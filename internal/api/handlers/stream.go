package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/careeyes/fod/internal/ingest"
)

// StreamResolver maps a video link to a playable stream URL.
type StreamResolver interface {
	Resolve(ctx context.Context, videoURL string) (string, error)
}

// StreamHandler resolves video links for the dashboard's live player.
type StreamHandler struct {
	resolver StreamResolver
	limiter  *rate.Limiter
}

// NewStreamHandler allows limit resolutions per second with the given burst.
// A non-positive limit disables rate limiting.
func NewStreamHandler(resolver StreamResolver, limit float64, burst int) *StreamHandler {
	h := &StreamHandler{resolver: resolver}
	if limit > 0 {
		h.limiter = rate.NewLimiter(rate.Limit(limit), burst)
	}
	return h
}

func (h *StreamHandler) Resolve(c *gin.Context) {
	videoURL := c.Query("url")
	if videoURL == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "url parameter is required"})
		return
	}
	if u, err := url.Parse(videoURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "url must be an http(s) link"})
		return
	}
	if h.limiter != nil && !h.limiter.Allow() {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
		return
	}

	streamURL, err := h.resolver.Resolve(c.Request.Context(), videoURL)
	if err != nil {
		if errors.Is(err, ingest.ErrNoStream) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no playable stream found"})
			return
		}
		slog.Error("resolve stream url", "url", videoURL, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to resolve stream url"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"m3u8": streamURL})
}
