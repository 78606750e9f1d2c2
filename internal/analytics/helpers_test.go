package analytics

import (
	"time"

	"github.com/careeyes/fod/internal/models"
)

// 2024-06-05 is a Wednesday.
var today = time.Date(2024, 6, 5, 15, 30, 0, 0, time.Local)

func event(id, date, clock, itemType, location string, status models.Status) models.DetectionEvent {
	return models.DetectionEvent{
		ID:        id,
		Date:      date,
		Time:      clock,
		CCTVID:    "1",
		Location:  location,
		ItemType:  itemType,
		ItemCount: 1,
		Status:    status,
	}
}

func ids(events []models.DetectionEvent) []string {
	out := make([]string, len(events))
	for i, ev := range events {
		out[i] = ev.ID
	}
	return out
}
