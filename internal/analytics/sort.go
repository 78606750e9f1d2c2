package analytics

import (
	"slices"
	"time"

	"github.com/careeyes/fod/internal/models"
)

// SortForTriage orders events by status severity (unhandled first), then most
// recent first. Equal keys keep their input order. Returns a new slice.
func SortForTriage(events []models.DetectionEvent) []models.DetectionEvent {
	return sortStable(events, func(a, b keyed) int {
		if c := severity(a.ev.Status) - severity(b.ev.Status); c != 0 {
			return c
		}
		return compareRecentFirst(a, b)
	})
}

// SortChronological orders events most recent first, stable on ties.
func SortChronological(events []models.DetectionEvent) []models.DetectionEvent {
	return sortStable(events, compareRecentFirst)
}

type keyed struct {
	ev models.DetectionEvent
	ts time.Time
	ok bool
}

// Events with an unparseable timestamp sort after every parseable one.
func compareRecentFirst(a, b keyed) int {
	switch {
	case a.ok && !b.ok:
		return -1
	case !a.ok && b.ok:
		return 1
	case !a.ok && !b.ok:
		return 0
	}
	return b.ts.Compare(a.ts)
}

func sortStable(events []models.DetectionEvent, cmp func(a, b keyed) int) []models.DetectionEvent {
	items := make([]keyed, len(events))
	for i, ev := range events {
		ts, ok := eventTimestamp(ev)
		items[i] = keyed{ev: ev, ts: ts, ok: ok}
	}
	slices.SortStableFunc(items, cmp)

	out := make([]models.DetectionEvent, len(items))
	for i, it := range items {
		out[i] = it.ev
	}
	return out
}
