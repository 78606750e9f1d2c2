package analytics

import (
	"strings"
	"time"

	"github.com/careeyes/fod/internal/models"
)

const dateLayout = "2006-01-02"

var timeLayouts = []string{"15:04:05", "15:04"}

// parseDate returns the calendar date at midnight UTC so that dates compare
// without any zone arithmetic. A trailing time component is ignored.
func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if len(s) > len(dateLayout) {
		s = s[:len(dateLayout)]
	}
	d, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}

func parseClock(s string) (time.Duration, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return time.Duration(t.Hour())*time.Hour +
				time.Duration(t.Minute())*time.Minute +
				time.Duration(t.Second())*time.Second, true
		}
	}
	return 0, false
}

func eventDate(ev models.DetectionEvent) (time.Time, bool) {
	return parseDate(ev.Date)
}

func eventHour(ev models.DetectionEvent) (int, bool) {
	d, ok := parseClock(ev.Time)
	if !ok {
		return 0, false
	}
	return int(d / time.Hour), true
}

// eventTimestamp combines date and time. ok is false when either part is malformed.
func eventTimestamp(ev models.DetectionEvent) (time.Time, bool) {
	d, ok := eventDate(ev)
	if !ok {
		return time.Time{}, false
	}
	clock, ok := parseClock(ev.Time)
	if !ok {
		return time.Time{}, false
	}
	return d.Add(clock), true
}

// CalendarDay strips the clock and zone from t, keeping the date as seen in t's location.
func CalendarDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
