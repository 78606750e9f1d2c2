package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/careeyes/fod/internal/analytics"
	"github.com/careeyes/fod/internal/eventsource"
	"github.com/careeyes/fod/internal/models"
	"github.com/careeyes/fod/internal/storage"
	"github.com/careeyes/fod/pkg/dto"
)

// EventStore is the persistent event table.
type EventStore interface {
	ListEvents(ctx context.Context) ([]models.DetectionEvent, error)
	FilterEvents(ctx context.Context, f storage.EventFilter) ([]models.DetectionEvent, error)
	GetEvent(ctx context.Context, id int64) (*models.DetectionEvent, error)
}

// ObjectReader reads stored images.
type ObjectReader interface {
	GetObject(ctx context.Context, key string) ([]byte, error)
}

// Broadcaster pushes live updates to dashboard clients.
type Broadcaster interface {
	BroadcastEvent(event *dto.WSEvent)
}

type EventHandler struct {
	store    EventStore
	statuses eventsource.StatusUpdater
	images   ObjectReader
	snapshot *eventsource.Snapshot
	hub      Broadcaster
	now      Clock
}

// NewEventHandler serves the event routes. Status changes go to statuses, the
// active event source.
func NewEventHandler(store EventStore, statuses eventsource.StatusUpdater, images ObjectReader, snapshot *eventsource.Snapshot, hub Broadcaster, now Clock) *EventHandler {
	return &EventHandler{store: store, statuses: statuses, images: images, snapshot: snapshot, hub: hub, now: now}
}

// EventList returns every stored event, newest first.
func (h *EventHandler) EventList(c *gin.Context) {
	events, err := h.store.ListEvents(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, dto.NewEventResponses(events))
}

// FilteredEventList queries the store by item type, date span and status code.
func (h *EventHandler) FilteredEventList(c *gin.Context) {
	f := storage.EventFilter{ItemType: c.Query("type")}

	for param, dst := range map[string]**time.Time{"from": &f.From, "to": &f.To} {
		v := c.Query(param)
		if v == "" {
			continue
		}
		t, err := time.Parse(time.DateOnly, v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + param + " date, expected YYYY-MM-DD"})
			return
		}
		*dst = &t
	}

	if v := c.Query("manage"); v != "" {
		status := analytics.ClassifyStatus(v)
		if !status.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid manage code"})
			return
		}
		code := status.Code()
		f.Manage = &code
	}

	events, err := h.store.FilterEvents(c.Request.Context(), f)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, dto.NewEventResponses(events))
}

// Query serves the dashboard list: the snapshot filtered by the query
// selections, in triage order unless order=time.
func (h *EventHandler) Query(c *gin.Context) {
	q, criteria, err := bindQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	filtered := analytics.Filter(h.snapshot.Events(), criteria, h.now())
	switch q.Order {
	case "", "triage":
		filtered = analytics.SortForTriage(filtered)
	case "time":
		filtered = analytics.SortChronological(filtered)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "order must be triage or time"})
		return
	}

	resp := dto.EventListResponse{
		Events:  dto.NewEventResponses(filtered),
		Total:   len(filtered),
		Summary: analytics.Summarize(filtered),
	}
	if at := h.snapshot.UpdatedAt(); !at.IsZero() {
		resp.UpdatedAt = at.Format(time.RFC3339)
	}
	c.JSON(http.StatusOK, resp)
}

// UpdateStatus records an operator's triage decision. The snapshot is updated
// first and rolled back when the event source rejects the change; live clients
// are notified only after it is accepted.
func (h *EventHandler) UpdateStatus(c *gin.Context) {
	id := c.Param("id")

	var req dto.StatusUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	status := analytics.ClassifyStatus(req.Status)
	if !status.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status must be 0, 1 or 2"})
		return
	}

	ctx := c.Request.Context()
	prev, cached := h.snapshot.Get(id)
	ev, cached := h.snapshot.UpdateStatus(id, status)

	if err := h.statuses.UpdateStatus(ctx, id, status); err != nil {
		if cached {
			h.snapshot.RevertStatus(id, status, prev.Status)
		}
		if errors.Is(err, eventsource.ErrEventNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "event not found"})
			return
		}
		slog.Error("update event status", "event_id", id, "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	if !cached {
		stored, ok := h.lookup(ctx, id)
		if !ok {
			c.JSON(http.StatusOK, gin.H{"eventId": id, "manage": status.Code(), "status": status.String()})
			return
		}
		ev = stored.WithStatus(status)
		h.snapshot.Add(ev)
	}

	slog.Info("event status updated", "event_id", id, "status", status.String())

	resp := dto.NewEventResponse(ev)
	if h.hub != nil {
		h.hub.BroadcastEvent(&dto.WSEvent{Type: dto.WSTypeStatusChanged, CCTVID: ev.CCTVID, Data: resp})
	}
	c.JSON(http.StatusOK, resp)
}

// lookup loads an event the snapshot does not hold yet from the event source.
func (h *EventHandler) lookup(ctx context.Context, id string) (models.DetectionEvent, bool) {
	getter, ok := h.statuses.(eventsource.EventGetter)
	if !ok {
		return models.DetectionEvent{}, false
	}
	stored, err := getter.GetEvent(ctx, id)
	if err != nil || stored == nil {
		if err != nil {
			slog.Warn("load updated event", "event_id", id, "error", err)
		}
		return models.DetectionEvent{}, false
	}
	return *stored, true
}

// Image streams the stored detection image of an event.
func (h *EventHandler) Image(c *gin.Context) {
	ev, ok := h.snapshot.Get(c.Param("id"))
	if !ok {
		id, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event id"})
			return
		}
		stored, err := h.store.GetEvent(c.Request.Context(), id)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if stored == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "event not found"})
			return
		}
		ev = *stored
	}

	if ev.ImagePath == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "event has no image"})
		return
	}

	data, err := h.images.GetObject(c.Request.Context(), ev.ImagePath)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "image not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Data(http.StatusOK, "image/jpeg", data)
}
