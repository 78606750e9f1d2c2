package dto

import (
	"github.com/careeyes/fod/internal/analytics"
	"github.com/careeyes/fod/internal/models"
)

type EventResponse struct {
	ID            string         `json:"eventId"`
	Date          string         `json:"eventDate"`
	Time          string         `json:"eventTime"`
	CCTVID        string         `json:"cctvId"`
	Location      string         `json:"location"`
	ItemType      string         `json:"itemType"`
	ItemTypeLabel string         `json:"itemTypeLabel"`
	ItemCount     int            `json:"itemCount"`
	ImgPath       string         `json:"imgPath"`
	ImageURL      string         `json:"imageUrl,omitempty"`
	StatusCode    int            `json:"manage"`
	Status        string         `json:"status"`
	StatusLabel   string         `json:"statusLabel"`
	Objects       map[string]int `json:"objects,omitempty"`
}

// NewEventResponse renders a normalized event for the dashboard.
func NewEventResponse(ev models.DetectionEvent) EventResponse {
	resp := EventResponse{
		ID:            ev.ID,
		Date:          ev.Date,
		Time:          ev.Time,
		CCTVID:        ev.CCTVID,
		Location:      ev.Location,
		ItemType:      ev.ItemType,
		ItemTypeLabel: analytics.ItemTypeLabel(ev.ItemType),
		ItemCount:     ev.ItemCount,
		ImgPath:       ev.ImagePath,
		StatusCode:    ev.Status.Code(),
		Status:        ev.Status.String(),
		StatusLabel:   ev.Status.Label(),
		Objects:       ev.Objects,
	}
	if ev.ImagePath != "" {
		resp.ImageURL = "/api/events/" + ev.ID + "/image"
	}
	return resp
}

func NewEventResponses(events []models.DetectionEvent) []EventResponse {
	out := make([]EventResponse, 0, len(events))
	for _, ev := range events {
		out = append(out, NewEventResponse(ev))
	}
	return out
}

type EventListResponse struct {
	Events    []EventResponse         `json:"events"`
	Total     int                     `json:"total"`
	Summary   analytics.StatusSummary `json:"summary"`
	UpdatedAt string                  `json:"updatedAt,omitempty"`
}

// EventQuery holds the dashboard filter selections. List fields accept
// repeated parameters or comma separated values.
type EventQuery struct {
	ItemType  []string `form:"itemType"`
	Location  []string `form:"location"`
	Status    []string `form:"status"`
	DateRange string   `form:"dateRange"`
	Start     string   `form:"start"`
	End       string   `form:"end"`
	TimeRange string   `form:"timeRange"`
	Order     string   `form:"order"`
	Key       string   `form:"key"`
}

// StatusUpdateRequest carries the new triage state as a code (0, 1, 2) or
// any of its text forms.
type StatusUpdateRequest struct {
	Status any `json:"status"`
}

// WSEvent is a WebSocket message for real-time event delivery.
type WSEvent struct {
	Type   string        `json:"type"` // detection, status_changed
	CCTVID string        `json:"cctvId"`
	Data   EventResponse `json:"data"`
}

const (
	WSTypeDetection     = "detection"
	WSTypeStatusChanged = "status_changed"
)
