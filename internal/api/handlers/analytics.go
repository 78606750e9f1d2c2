package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/careeyes/fod/internal/analytics"
	"github.com/careeyes/fod/internal/models"
	"github.com/careeyes/fod/pkg/dto"
)

// EventSnapshot is the in-memory working set charts are computed from.
type EventSnapshot interface {
	Events() []models.DetectionEvent
}

// AnalyticsHandler serves the dashboard charts. Every chart is computed over
// the snapshot narrowed by the same query selections as the event list.
type AnalyticsHandler struct {
	snapshot EventSnapshot
	now      Clock
}

func NewAnalyticsHandler(snapshot EventSnapshot, now Clock) *AnalyticsHandler {
	return &AnalyticsHandler{snapshot: snapshot, now: now}
}

func (h *AnalyticsHandler) filtered(c *gin.Context) (dto.EventQuery, analytics.Criteria, []models.DetectionEvent, bool) {
	q, criteria, err := bindQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return q, criteria, nil, false
	}
	return q, criteria, analytics.Filter(h.snapshot.Events(), criteria, h.now()), true
}

func groupKey(c *gin.Context, q dto.EventQuery) (analytics.GroupKey, bool) {
	key, err := analytics.ParseGroupKey(q.Key)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return "", false
	}
	return key, true
}

// Ratio returns the share of each item type or location.
func (h *AnalyticsHandler) Ratio(c *gin.Context) {
	q, criteria, events, ok := h.filtered(c)
	if !ok {
		return
	}
	key, ok := groupKey(c, q)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, dto.RatioResponse{
		Key:       string(key),
		DateRange: criteria.DateRange.Kind.String(),
		Total:     len(events),
		Slices:    analytics.Ratio(events, key),
	})
}

// Trend returns per-bucket counts for each item type or location.
func (h *AnalyticsHandler) Trend(c *gin.Context) {
	q, criteria, events, ok := h.filtered(c)
	if !ok {
		return
	}
	key, ok := groupKey(c, q)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, dto.ChartResponse{
		Key:       string(key),
		DateRange: criteria.DateRange.Kind.String(),
		Chart:     analytics.Trend(events, key, criteria.DateRange.Kind, h.now()),
	})
}

// Frequency returns per-bucket counts for each location and item type pair.
func (h *AnalyticsHandler) Frequency(c *gin.Context) {
	_, criteria, events, ok := h.filtered(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, dto.ChartResponse{
		DateRange: criteria.DateRange.Kind.String(),
		Chart:     analytics.Frequency(events, criteria.DateRange.Kind, h.now()),
	})
}

// Summary counts events per triage state.
func (h *AnalyticsHandler) Summary(c *gin.Context) {
	_, criteria, events, ok := h.filtered(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, dto.SummaryResponse{
		DateRange:     criteria.DateRange.Kind.String(),
		StatusSummary: analytics.Summarize(events),
	})
}
