package analytics

import (
	"log/slog"
	"slices"
	"time"

	"github.com/careeyes/fod/internal/models"
)

// Matches reports whether ev satisfies every selection in c. today is the
// operator's current calendar date; only its year, month and day are used.
func Matches(ev models.DetectionEvent, c Criteria, today time.Time) bool {
	if len(c.ItemTypes) > 0 && !slices.Contains(c.ItemTypes, ev.ItemType) {
		return false
	}
	if len(c.Locations) > 0 && !slices.Contains(c.Locations, ev.Location) {
		return false
	}
	if len(c.Statuses) > 0 && !slices.Contains(c.Statuses, ClassifyStatus(ev.Status)) {
		return false
	}
	return matchesDate(ev, c.DateRange, CalendarDay(today)) && matchesTime(ev, c.TimeRange)
}

// Filter returns the events matching c in input order. The input is not modified.
func Filter(events []models.DetectionEvent, c Criteria, today time.Time) []models.DetectionEvent {
	out := make([]models.DetectionEvent, 0, len(events))
	for _, ev := range events {
		if Matches(ev, c, today) {
			out = append(out, ev)
		}
	}
	return out
}

func matchesDate(ev models.DetectionEvent, r DateRange, today time.Time) bool {
	if r.Kind == DateAll {
		return true
	}
	d, ok := eventDate(ev)
	if !ok {
		slog.Warn("event excluded: malformed date", "event_id", ev.ID, "date", ev.Date, "range", r.Kind.String())
		return false
	}
	switch r.Kind {
	case DateToday:
		return d.Equal(today)
	case DateThisWeek:
		return !d.Before(today.AddDate(0, 0, -6)) && !d.After(today)
	case DateThisMonth:
		return d.Year() == today.Year() && d.Month() == today.Month()
	case DateCustom:
		return !d.Before(CalendarDay(r.Start)) && !d.After(CalendarDay(r.End))
	default:
		return true
	}
}

func matchesTime(ev models.DetectionEvent, r TimeRange) bool {
	if r == TimeAll {
		return true
	}
	hour, ok := eventHour(ev)
	if !ok {
		slog.Warn("event excluded: malformed time", "event_id", ev.ID, "time", ev.Time, "range", r.String())
		return false
	}
	lo, hi := r.Hours()
	return hour >= lo && hour < hi
}
