package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/careeyes/fod/internal/models"
	"github.com/careeyes/fod/internal/observability"
	"github.com/careeyes/fod/pkg/dto"
)

// DetectionPublisher queues detector reports for storage.
type DetectionPublisher interface {
	PublishDetection(ctx context.Context, d models.Detection) error
}

type DetectHandler struct {
	publisher DetectionPublisher
	now       Clock
}

func NewDetectHandler(publisher DetectionPublisher, now Clock) *DetectHandler {
	return &DetectHandler{publisher: publisher, now: now}
}

// Detect accepts one detector report. Missing date or time is stamped with
// the receive time.
func (h *DetectHandler) Detect(c *gin.Context) {
	var req dto.DetectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cctvID := req.CCTV()
	if n, err := strconv.Atoi(cctvID); err != nil || n <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cctvId must be a positive integer"})
		return
	}
	if len(req.Objects) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "objects must not be empty"})
		return
	}
	for item, count := range req.Objects {
		if item == "" || count <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "object counts must be positive"})
			return
		}
	}

	now := h.now()
	d := models.Detection{
		CCTVID:   cctvID,
		Date:     req.EventDate,
		Time:     req.EventTime,
		ImgPath:  req.ImgPath,
		Location: req.Location,
		Objects:  req.Objects,
	}
	if d.Date == "" {
		d.Date = now.Format(time.DateOnly)
	}
	if d.Time == "" {
		d.Time = now.Format(time.TimeOnly)
	}

	if err := h.publisher.PublishDetection(c.Request.Context(), d); err != nil {
		slog.Error("publish detection", "cctv_id", cctvID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	observability.DetectionsIngested.WithLabelValues("http").Inc()

	c.JSON(http.StatusAccepted, gin.H{"status": "queued"})
}
