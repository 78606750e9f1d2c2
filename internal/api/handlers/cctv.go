package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/careeyes/fod/internal/ingest"
	"github.com/careeyes/fod/internal/models"
	"github.com/careeyes/fod/internal/queue"
	"github.com/careeyes/fod/internal/storage"
	"github.com/careeyes/fod/pkg/dto"
)

type CCTVStore interface {
	ListCCTVs(ctx context.Context) ([]models.CCTV, error)
	GetCCTV(ctx context.Context, id string) (*models.CCTV, error)
}

// ControlPublisher sends feed commands to the ingestor.
type ControlPublisher interface {
	PublishControl(cmd queue.ControlCommand) error
}

type CCTVHandler struct {
	store   CCTVStore
	control ControlPublisher
	frames  ObjectReader
	fps     int
}

func NewCCTVHandler(store CCTVStore, control ControlPublisher, frames ObjectReader, fps int) *CCTVHandler {
	return &CCTVHandler{store: store, control: control, frames: frames, fps: fps}
}

func (h *CCTVHandler) List(c *gin.Context) {
	cctvs, err := h.store.ListCCTVs(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	resp := make([]dto.CCTVResponse, 0, len(cctvs))
	for _, cam := range cctvs {
		resp = append(resp, dto.NewCCTVResponse(cam))
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CCTVHandler) lookup(c *gin.Context) (*models.CCTV, bool) {
	cam, err := h.store.GetCCTV(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return nil, false
	}
	if cam == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "cctv not found"})
		return nil, false
	}
	return cam, true
}

// Start asks the ingestor to begin sampling the CCTV feed.
func (h *CCTVHandler) Start(c *gin.Context) {
	cam, ok := h.lookup(c)
	if !ok {
		return
	}
	if cam.StreamURL == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cctv has no stream url"})
		return
	}

	err := h.control.PublishControl(queue.ControlCommand{
		Action:     "start",
		CCTVID:     cam.ID,
		StreamURL:  cam.StreamURL,
		StreamType: cam.StreamType,
		FPS:        h.fps,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "starting", "cctvId": cam.ID})
}

func (h *CCTVHandler) Stop(c *gin.Context) {
	cam, ok := h.lookup(c)
	if !ok {
		return
	}
	if err := h.control.PublishControl(queue.ControlCommand{Action: "stop", CCTVID: cam.ID}); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "stopping", "cctvId": cam.ID})
}

// Snapshot returns the most recent frame sampled from the CCTV.
func (h *CCTVHandler) Snapshot(c *gin.Context) {
	data, err := h.frames.GetObject(c.Request.Context(), ingest.LatestFrameKey(c.Param("id")))
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no frame captured yet"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "image/jpeg", data)
}
